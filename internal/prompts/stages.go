package prompts

import (
	"encoding/json"
	"slices"
)

// Stage identifies a grading phase that calls the completion service.
type Stage string

// Grading stages that accept instruction overrides.
const (
	StageClarity Stage = "clarity"
	StageContent Stage = "content"
)

var stages = []Stage{
	StageClarity,
	StageContent,
}

// Stages returns the list of valid stages.
func Stages() []Stage {
	return slices.Clone(stages)
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStage validates a string as a known stage.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
