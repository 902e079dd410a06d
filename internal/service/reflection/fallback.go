package reflection

import (
	"encoding/json"

	model "github.com/ubloom/ubloom/backend/internal/model/reflection"
)

// Fallback is returned in place of model output that could not be parsed.
func Fallback() model.Reflection {
	return model.Reflection{
		Insight:          "It sounds like you put a lot of emotion into that entry. That takes courage.",
		GrowthCategory:   model.EmotionalRegulation,
		GrowthPath:       "Try setting a mini-goal: Drink a glass of water and stretch for 30 seconds.",
		ReflectionPrompt: "What is one non-judgmental thought you can offer yourself right now?",
	}
}

var fallbackJSON = func() json.RawMessage {
	raw, err := json.Marshal(Fallback())
	if err != nil {
		panic(err)
	}
	return raw
}()
