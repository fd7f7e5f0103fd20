package backend

import "encoding/json"

// envelope is the wrapped list shape some backend endpoints return:
// the records under a "data" field alongside metadata.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Normalize extracts the list of records from a response body that is
// either a bare JSON array or an enveloped object with a "data" array.
// Any other shape yields an empty list. Never returns an error: screens
// degrade to an empty list rather than break on an unexpected payload.
func Normalize(body []byte) json.RawMessage {
	if isArray(body) {
		return body
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && isArray(env.Data) {
		return env.Data
	}

	return json.RawMessage("[]")
}

// DecodeList normalizes body and decodes the records into []T.
// Records that fail to decode yield the empty list, same fail-soft rule.
func DecodeList[T any](body []byte) []T {
	var items []T
	if err := json.Unmarshal(Normalize(body), &items); err != nil || items == nil {
		return []T{}
	}
	return items
}

// isArray reports whether raw is a JSON array, ignoring leading whitespace.
func isArray(raw []byte) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
