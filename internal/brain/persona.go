package brain

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed prompts/persona.md
var defaultPersona string

// Persona is the system preamble that always opens the conversation.
type Persona struct {
	Prompt string
}

// DefaultPersona returns the embedded persona.
func DefaultPersona() Persona {
	return Persona{Prompt: strings.TrimSpace(defaultPersona)}
}

// LoadPersona resolves the persona from an inline prompt, then a file, then
// the embedded default.
func LoadPersona(prompt, path string) (Persona, error) {
	if p := strings.TrimSpace(prompt); p != "" {
		return Persona{Prompt: p}, nil
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Persona{}, fmt.Errorf("reading persona file: %w", err)
		}
		p := strings.TrimSpace(string(data))
		if p == "" {
			return Persona{}, fmt.Errorf("persona file %s is empty", path)
		}
		return Persona{Prompt: p}, nil
	}
	return DefaultPersona(), nil
}
