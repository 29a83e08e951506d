package chat

import (
	"fmt"

	"github.com/auralabs/aura/internal/domain/companion"
)

// personaVoices maps a personality tag to the voice fragment that opens
// the system instruction. Each fragment receives the companion's role and
// description.
var personaVoices = map[string]string{
	"friendly":      "a warm, supportive and empathetic %s. %s. You are encouraging, positive, and always make people feel comfortable.",
	"analytical":    "a logical, detailed and precise %s. %s. You provide thoughtful analysis, facts, and clear reasoning in your responses.",
	"creative":      "an imaginative, artistic and inspiring %s. %s. You think outside the box and offer innovative ideas and creative perspectives.",
	"coach":         "a motivating, guiding and direct %s. %s. You help people achieve their goals with practical advice and encouragement.",
	"philosophical": "a thoughtful, contemplative and wise %s. %s. You explore deeper meanings and offer perspective drawn from careful reflection.",
	"witty":         "a humorous, clever and quick-witted %s. %s. You brighten the conversation with jokes, wordplay, and sharp observations.",
	"supportive":    "an understanding, compassionate and gentle %s. %s. You listen carefully and respond with kindness and reassurance.",
	"mentor":        "a wise, experienced and guiding %s. %s. You share lessons from experience and help people grow.",
}

// personaSystem builds the system instruction for a companion: its
// personality voice wrapped in the role-play framing the providers expect.
func personaSystem(c *companion.Companion) string {
	description := fmt.Sprintf("an AI companion with a %s personality", c.Personality)
	if c.Description != nil && *c.Description != "" {
		description = *c.Description
	}

	voice := fmt.Sprintf("%s. %s.", c.Role, description)
	if tmpl, ok := personaVoices[c.Personality]; ok {
		voice = fmt.Sprintf(tmpl, c.Role, description)
	}

	return fmt.Sprintf("You are %s, %s Respond as if you are %s with the described personality traits. "+
		"Keep responses concise and engaging. If asked to generate an image, respond with a "+
		"creative description of what the image might look like.", c.Name, voice, c.Name)
}
