package agent

import (
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"

	"ctxpick/internal/errors"
)

// Outcome is a validated agent selection.
type Outcome struct {
	Files      []string `json:"files"`
	Reasoning  string   `json:"reasoning,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

// outcomeSchema constrains what we accept from an agent: a non-empty files
// array of strings, optional reasoning, and a confidence in [0, 1].
const outcomeSchema = `{
	"type": "object",
	"required": ["files"],
	"properties": {
		"files": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "string", "minLength": 1}
		},
		"reasoning": {"type": "string"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(outcomeSchema)

// ParseOutcome extracts the first well-formed JSON object from an agent's
// raw response (agents often wrap the object in prose or markdown fences),
// validates it against the outcome schema, and decodes it.
func ParseOutcome(raw string) (*Outcome, error) {
	objText, ok := extractJSONObject(raw)
	if !ok {
		return nil, errors.New(errors.AgentResponseInvalid,
			"no JSON object found in agent response", nil)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(objText))
	if err != nil {
		return nil, errors.New(errors.AgentResponseInvalid,
			"agent response is not valid JSON", err)
	}
	if !result.Valid() {
		detail := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			detail = append(detail, e.String())
		}
		return nil, errors.New(errors.AgentResponseInvalid,
			"agent response violates the outcome schema", nil).WithDetails(detail)
	}

	var outcome Outcome
	if err := json.Unmarshal([]byte(objText), &outcome); err != nil {
		return nil, errors.New(errors.AgentResponseInvalid,
			"failed to decode agent response", err)
	}
	return &outcome, nil
}

// extractJSONObject returns the first balanced, parseable {...} substring.
// Brace matching is string-aware so braces inside JSON strings don't
// unbalance the scan.
func extractJSONObject(raw string) (string, bool) {
	for start := 0; start < len(raw); start++ {
		if raw[start] != '{' {
			continue
		}
		end, ok := matchBrace(raw, start)
		if !ok {
			continue
		}
		candidate := raw[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
