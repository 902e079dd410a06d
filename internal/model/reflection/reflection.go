package reflection

import (
	"errors"
	"fmt"
	"strings"
)

// GrowthCategory is the area of personal growth a reflection points at.
type GrowthCategory string

const (
	Resilience          GrowthCategory = "Resilience"
	SelfDiscipline      GrowthCategory = "Self-Discipline"
	EmotionalRegulation GrowthCategory = "Emotional Regulation"
	Motivation          GrowthCategory = "Motivation"
	Relationships       GrowthCategory = "Relationships"
)

var (
	ErrMissingField    = errors.New("reflection field is empty")
	ErrUnknownCategory = errors.New("unknown growth category")
)

// Categories lists the accepted growth categories in prompt order.
func Categories() []GrowthCategory {
	return []GrowthCategory{Resilience, SelfDiscipline, EmotionalRegulation, Motivation, Relationships}
}

// Valid reports whether c is one of Categories.
func (c GrowthCategory) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Reflection is the structured answer returned for a journal entry.
type Reflection struct {
	Insight          string         `json:"insight"`
	GrowthCategory   GrowthCategory `json:"growth_category"`
	GrowthPath       string         `json:"growth_path"`
	ReflectionPrompt string         `json:"reflection_prompt"`
}

// Validate checks that every field is present and the category is known.
func (r Reflection) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"insight", r.Insight},
		{"growth_category", string(r.GrowthCategory)},
		{"growth_path", r.GrowthPath},
		{"reflection_prompt", r.ReflectionPrompt},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}

	if !r.GrowthCategory.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, r.GrowthCategory)
	}
	return nil
}
