package llm

import "errors"

// Provider error taxonomy. The orchestrator's fallback decision is a pure
// function of these kinds; adapters must classify every failure as exactly
// one of them.
var (
	// ErrMissingCredential — no valid credential stored for the provider.
	// Raised before any network call is attempted.
	ErrMissingCredential = errors.New("provider credential missing")

	// ErrUpstreamUnavailable — network failure, non-2xx status, or timeout.
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")

	// ErrUpstreamFormat — the upstream answered but the response shape was
	// missing expected fields.
	ErrUpstreamFormat = errors.New("unexpected upstream response shape")
)

// IsProviderError reports whether err belongs to the provider taxonomy.
// All three kinds trigger orchestrator fallback; none may surface to HTTP.
func IsProviderError(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrUpstreamFormat)
}
