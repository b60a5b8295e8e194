// Package reply derives display text from the relay's response body. The
// upstream webhook's shape is not under our control and has varied across
// integrations, so extraction degrades through an ordered set of fallbacks
// instead of failing the turn.
package reply

import (
	"encoding/json"
	"fmt"
)

// AckText is returned when the body parses but matches no known shape.
const AckText = "Gracias, tu mensaje ha sido recibido."

// Extract resolves reply text from a relay response body, in strict
// precedence order:
//
//  1. a "raw" string field, verbatim;
//  2. the "response" field of the first element of an array body;
//  3. a top-level "response" field;
//  4. the body itself, when it is a bare JSON string;
//  5. AckText.
//
// Empty strings do not satisfy a rule; the next one is tried. A body that
// is not valid JSON is an error, not an acknowledgment.
func Extract(body []byte) (string, error) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode relay response: %w", err)
	}

	switch v := decoded.(type) {
	case map[string]any:
		if text := stringField(v, "raw"); text != "" {
			return text, nil
		}
		if text := stringField(v, "response"); text != "" {
			return text, nil
		}
	case []any:
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok {
				if text := stringField(first, "response"); text != "" {
					return text, nil
				}
			}
		}
	case string:
		if v != "" {
			return v, nil
		}
	}

	return AckText, nil
}

func stringField(m map[string]any, key string) string {
	text, _ := m[key].(string)
	return text
}
