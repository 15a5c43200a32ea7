package classifier

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

const neutralConfidence = 0.5

var errNoObject = errors.New("no JSON object in model reply")

type categoryReply struct {
	Category   string          `json:"category"`
	Confidence json.RawMessage `json:"confidence"`
	Keywords   []string        `json:"keywords"`
}

type priorityReply struct {
	Priority   string          `json:"priority"`
	Confidence json.RawMessage `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

// decodeReply strips markdown fences and decodes the outermost object in raw into v.
func decodeReply(raw string, v any) error {
	text := strings.ReplaceAll(raw, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return errNoObject
	}
	return json.Unmarshal([]byte(text[start:end+1]), v)
}

// parseConfidence accepts a number or numeric string, clamped to [0,1].
// Anything else yields the neutral confidence.
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return neutralConfidence
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return neutralConfidence
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return neutralConfidence
		}
		value = parsed
	}
	switch {
	case math.IsNaN(value):
		return neutralConfidence
	case value < 0:
		return 0
	case value > 1:
		return 1
	}
	return value
}
