// Package reflect defines the strict audit document the agent loop validates
// model reflections against, after recovering a JSON object from the raw
// response text. A reflection judges a single tool result: did it work,
// what is wrong with it, and whether to retry with improved arguments.
package reflect

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/agentlow/agentlow/internal/recovery"
)

// NextAction is the decision a reflection carries.
type NextAction string

// NextAction values.
const (
	ActionRetry    NextAction = "retry"
	ActionFinalize NextAction = "finalize"
)

// Parse errors.
var (
	// ErrNoDocument is returned when no parseable JSON object could be
	// recovered from the text.
	ErrNoDocument = errors.New("no JSON object recovered from text")

	// ErrInvalidReflection is returned when the recovered object does not
	// satisfy the reflection schema.
	ErrInvalidReflection = errors.New("recovered object violates reflection schema")
)

// Reflection is the strict audit result. Score is 1 on success and 0 on
// failure; NextAction is retry or finalize; ImprovedInput optionally carries
// replacement arguments for a retry.
type Reflection struct {
	Success       bool       `json:"success"`
	Analysis      string     `json:"analysis"`
	Score         int        `json:"score"`
	NextAction    NextAction `json:"next_action"`
	ImprovedInput string     `json:"improved_input,omitempty"`
}

// smartQuotes maps typographic quotes the model sometimes emits back to the
// ASCII forms JSON requires.
var smartQuotes = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"’", "'",
)

// Parse recovers a JSON object from raw model output and validates it as a
// Reflection. If recovery fails on the original text, it is retried once on
// a copy with typographic quotes normalized. The returned value is always
// normalized (see normalize); on error the zero Reflection is returned.
func Parse(text string) (Reflection, error) {
	raw, ok := recovery.ExtractJSONObject(text)
	if !ok {
		raw, ok = recovery.ExtractJSONObject(smartQuotes.Replace(text))
		if !ok {
			return Reflection{}, ErrNoDocument
		}
	}

	var refl Reflection
	if err := json.Unmarshal(raw, &refl); err != nil {
		return Reflection{}, fmt.Errorf("%w: %v", ErrInvalidReflection, err)
	}

	if strings.TrimSpace(refl.Analysis) == "" {
		return Reflection{}, fmt.Errorf("%w: analysis must not be empty", ErrInvalidReflection)
	}
	if refl.Score < 0 || refl.Score > 1 {
		return Reflection{}, fmt.Errorf("%w: score %d out of range", ErrInvalidReflection, refl.Score)
	}
	if refl.NextAction != ActionRetry && refl.NextAction != ActionFinalize {
		return Reflection{}, fmt.Errorf("%w: next_action %q", ErrInvalidReflection, refl.NextAction)
	}

	return normalize(refl), nil
}

// normalize enforces the schema's internal consistency regardless of what
// the model claimed: success pins score 1, finalize, and no improved input;
// failure pins score 0 and retry, and blanks whitespace-only improved input.
func normalize(refl Reflection) Reflection {
	if refl.Success {
		refl.Score = 1
		refl.NextAction = ActionFinalize
		refl.ImprovedInput = ""
		return refl
	}

	refl.Score = 0
	refl.NextAction = ActionRetry
	if strings.TrimSpace(refl.ImprovedInput) == "" {
		refl.ImprovedInput = ""
	}
	return refl
}

// errorMarkers are the substrings Heuristic treats as failure indicators.
var errorMarkers = []string{"error", "exception", "traceback"}

// Heuristic produces a fallback reflection from the raw tool output when the
// model's own audit is unavailable or unusable. It looks for error markers
// in the serialized output, an explicit success=false field, and a non-zero
// exit code.
func Heuristic(toolOutput map[string]any) Reflection {
	serialized, err := json.Marshal(toolOutput)
	if err != nil {
		serialized = []byte(fmt.Sprint(toolOutput))
	}

	lowered := strings.ToLower(string(serialized))
	looksError := false
	for _, marker := range errorMarkers {
		if strings.Contains(lowered, marker) {
			looksError = true
			break
		}
	}

	if v, ok := toolOutput["success"]; ok {
		if b, isBool := v.(bool); isBool && !b {
			looksError = true
		}
	}
	if v, ok := toolOutput["exitCode"]; ok {
		switch code := v.(type) {
		case int:
			looksError = looksError || code != 0
		case float64:
			looksError = looksError || code != 0
		}
	}

	if looksError {
		return Reflection{
			Success:    false,
			Analysis:   "The output appears to contain an error or a failed execution. Adjust the arguments or simplify the call.",
			Score:      0,
			NextAction: ActionRetry,
		}
	}

	return Reflection{
		Success:    true,
		Analysis:   "The output appears valid and useful for the task.",
		Score:      1,
		NextAction: ActionFinalize,
	}
}
