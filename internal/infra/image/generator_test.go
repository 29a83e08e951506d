package image

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

type fakeCreds map[string]string

func (f fakeCreds) Secret(_ context.Context, provider string) (string, error) {
	return f[provider], nil
}

func newTestGenerator(creds fakeCreds, stabilityURL, hfURL string) *Generator {
	return NewGenerator(creds, Config{
		StabilityURL:   stabilityURL,
		HuggingFaceURL: hfURL,
	}, zap.NewNop())
}

func TestGenerate_StabilityFirstWhenCredentialed(t *testing.T) {
	t.Parallel()

	png := base64.StdEncoding.EncodeToString([]byte("fake-png"))
	stability := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-stab" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"artifacts":[{"base64":"` + png + `"}]}`)) //nolint:errcheck
	}))
	defer stability.Close()

	var hfCalls atomic.Int32
	hf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hfCalls.Add(1)
	}))
	defer hf.Close()

	g := newTestGenerator(fakeCreds{ProviderStability: "sk-stab"}, stability.URL, hf.URL)

	got := g.Generate(context.Background(), "a calm mountain lake")
	if got != "data:image/png;base64,"+png {
		t.Errorf("Generate() = %q; want stability data URI", got)
	}
	if hfCalls.Load() != 0 {
		t.Errorf("huggingface called %d times; want 0 when stability succeeds", hfCalls.Load())
	}
}

func TestGenerate_FallsBackToHuggingFace(t *testing.T) {
	t.Parallel()

	stability := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer stability.Close()

	hf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("anonymous stage sent Authorization = %q", got)
		}
		w.Write([]byte("raw-image-bytes")) //nolint:errcheck
	}))
	defer hf.Close()

	g := newTestGenerator(fakeCreds{ProviderStability: "sk-stab"}, stability.URL, hf.URL)

	got := g.Generate(context.Background(), "a fox in snow")
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("raw-image-bytes"))
	if got != want {
		t.Errorf("Generate() = %q; want huggingface data URI", got)
	}
}

func TestGenerate_AuthenticatedHuggingFaceStage(t *testing.T) {
	t.Parallel()

	var sawAuth atomic.Bool
	hf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer hf-key" {
			sawAuth.Store(true)
		}
		w.Write([]byte("img")) //nolint:errcheck
	}))
	defer hf.Close()

	g := newTestGenerator(fakeCreds{ProviderHuggingFace: "hf-key"}, "http://127.0.0.1:1/", hf.URL)

	got := g.Generate(context.Background(), "abstract art")
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("Generate() = %q; want data URI", got)
	}
	if !sawAuth.Load() {
		t.Error("authenticated huggingface stage never sent the stored key")
	}
}

func TestGenerate_PlaceholderOnTotalExhaustion(t *testing.T) {
	t.Parallel()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer down.Close()

	g := newTestGenerator(fakeCreds{}, down.URL, down.URL)

	got := g.Generate(context.Background(), "sunset over the misty ancient harbor")
	want := placeholderBaseURL + "sunset+over+the"
	if got != want {
		t.Errorf("Generate() = %q; want placeholder %q", got, want)
	}
}

func TestPlaceholder_ShortPrompt(t *testing.T) {
	t.Parallel()

	got := Placeholder("cat")
	if got != placeholderBaseURL+"cat" {
		t.Errorf("Placeholder(cat) = %q", got)
	}
}
