package chat

import (
	"regexp"
	"strings"
)

// Markdown image syntax; the capture group holds the URL.
var imagePattern = regexp.MustCompile(`!\[.*?\]\((.*?)\)`)

// extractImage pulls the first markdown image out of generated text.
// It returns the text with that snippet removed and the image URL, or the
// text unchanged and "" when no image is embedded. Later matches stay in
// the text untouched.
func extractImage(text string) (clean, imageURL string) {
	loc := imagePattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, ""
	}
	imageURL = text[loc[2]:loc[3]]
	clean = strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
	return clean, imageURL
}
