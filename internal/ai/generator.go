// Package ai turns a tour snapshot into a natural-language routing prompt,
// invokes an external text-generation collaborator and extracts a structured
// suggestion from its possibly malformed output. The collaborator is a black
// box: prompt in, free-form text out. Everything here is built to survive
// that unreliability.
package ai

import "context"

// TextGenerator is the external text-generation collaborator. Any provider
// fulfilling "prompt in, text out" satisfies the contract.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the TextGenerator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
