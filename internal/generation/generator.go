// Package generation wraps the text-generation service. The composer treats
// any failure here as recoverable and falls back to a deterministic answer.
package generation

import "context"

// Generator produces text for a prompt. Implementations classify all
// failures (quota, network, malformed output) as generation errors.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}
