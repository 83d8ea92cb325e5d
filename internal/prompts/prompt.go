// Package prompts manages the instructions sent to the completion service for
// each grading stage. Built-in defaults can be replaced by an active override
// stored in the database; the response contract for each stage is fixed.
package prompts

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Prompt represents a named instruction override for a stage.
type Prompt struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Stage        Stage     `json:"stage"`
	Instructions string    `json:"instructions"`
	Description  *string   `json:"description"`
	Active       bool      `json:"active"`
}

// Command carries the fields for creating or updating a prompt override.
type Command struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

// Validate reports missing required fields.
func (c Command) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	if _, err := ParseStage(string(c.Stage)); err != nil {
		return err
	}
	if strings.TrimSpace(c.Instructions) == "" {
		return ErrInstructionsRequired
	}
	return nil
}

// Source resolves the instructions and response contract for a stage.
type Source interface {
	Instructions(ctx context.Context, stage Stage) (string, error)
	Spec(ctx context.Context, stage Stage) (string, error)
}

// Defaults is a Source backed only by the built-in instructions.
type Defaults struct{}

func (Defaults) Instructions(_ context.Context, stage Stage) (string, error) {
	return DefaultInstructions(stage)
}

func (Defaults) Spec(_ context.Context, stage Stage) (string, error) {
	return Spec(stage)
}

// Compose joins the instructions and spec for a stage into one system prompt.
func Compose(ctx context.Context, src Source, stage Stage) (string, error) {
	instructions, err := src.Instructions(ctx, stage)
	if err != nil {
		return "", err
	}

	spec, err := src.Spec(ctx, stage)
	if err != nil {
		return "", err
	}

	return instructions + "\n\n" + spec, nil
}
