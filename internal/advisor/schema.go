package advisor

import "encoding/json"

const (
	keyNumberCount  = 3
	actionCount     = 2
	disclaimerCount = 2
)

// ValidateResponse checks an arbitrary parsed payload against the exact
// structural contract and narrows it into a StructuredResponse. Returns
// nil on the first failed check. The provider's own structured-output
// enforcement is not trusted alone; this is the independent second line.
// Unknown extra fields are tolerated; the required shape is strict.
// Deterministic and side-effect free.
func ValidateResponse(raw json.RawMessage) *StructuredResponse {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		return nil
	}

	summary, ok := payload["summary"].(string)
	if !ok {
		return nil
	}

	keyNumbers, ok := textObjectArray(payload["key_numbers"], keyNumberCount, "label", "value", "unit", "evidence")
	if !ok {
		return nil
	}

	interpretation, ok := payload["interpretation"].(string)
	if !ok {
		return nil
	}

	actions, ok := textObjectArray(payload["possible_actions"], actionCount, "action", "why", "tradeoff")
	if !ok {
		return nil
	}

	rawMissing, ok := payload["missing_data"].([]interface{})
	if !ok {
		return nil
	}

	confidence, ok := payload["confidence"].(string)
	if !ok {
		return nil
	}
	switch Confidence(confidence) {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
	default:
		return nil
	}

	disclaimers, ok := textArray(payload["disclaimers"], disclaimerCount)
	if !ok {
		return nil
	}

	resp := &StructuredResponse{
		Summary:        summary,
		Interpretation: interpretation,
		Confidence:     Confidence(confidence),
		Disclaimers:    disclaimers,
		MissingData:    make([]string, 0, len(rawMissing)),
	}
	for _, kn := range keyNumbers {
		resp.KeyNumbers = append(resp.KeyNumbers, KeyNumber{
			Label:    kn["label"],
			Value:    kn["value"],
			Unit:     kn["unit"],
			Evidence: kn["evidence"],
		})
	}
	for _, a := range actions {
		resp.PossibleActions = append(resp.PossibleActions, ActionOption{
			Action:   a["action"],
			Why:      a["why"],
			Tradeoff: a["tradeoff"],
		})
	}
	// Element types beyond array-ness are unchecked. Non-string
	// elements are carried as their JSON text so the caller sees every
	// element the model produced.
	for _, m := range rawMissing {
		if s, ok := m.(string); ok {
			resp.MissingData = append(resp.MissingData, s)
			continue
		}
		b, _ := json.Marshal(m)
		resp.MissingData = append(resp.MissingData, string(b))
	}

	return resp
}

// textObjectArray narrows v into exactly n objects whose listed fields
// are all text.
func textObjectArray(v interface{}, n int, fields ...string) ([]map[string]string, bool) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != n {
		return nil, false
	}

	out := make([]map[string]string, 0, n)
	for _, el := range arr {
		obj, ok := el.(map[string]interface{})
		if !ok {
			return nil, false
		}
		m := make(map[string]string, len(fields))
		for _, f := range fields {
			s, ok := obj[f].(string)
			if !ok {
				return nil, false
			}
			m[f] = s
		}
		out = append(out, m)
	}
	return out, true
}

// textArray narrows v into exactly n text elements.
func textArray(v interface{}, n int) ([]string, bool) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != n {
		return nil, false
	}

	out := make([]string, 0, n)
	for _, el := range arr {
		s, ok := el.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// ResponseSchema returns the JSON-schema descriptor handed to the
// completion provider's structured-output mechanism. It mirrors the
// contract ValidateResponse enforces, including the three fixed
// cardinalities.
func ResponseSchema() map[string]interface{} {
	textField := map[string]interface{}{"type": "string"}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"summary": map[string]interface{}{
				"type":        "string",
				"description": "Key takeaway in at most two sentences",
			},
			"key_numbers": map[string]interface{}{
				"type":     "array",
				"minItems": keyNumberCount,
				"maxItems": keyNumberCount,
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"label":    textField,
						"value":    textField,
						"unit":     textField,
						"evidence": textField,
					},
					"required":             []string{"label", "value", "unit", "evidence"},
					"additionalProperties": false,
				},
			},
			"interpretation": textField,
			"possible_actions": map[string]interface{}{
				"type":     "array",
				"minItems": actionCount,
				"maxItems": actionCount,
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"action":   textField,
						"why":      textField,
						"tradeoff": textField,
					},
					"required":             []string{"action", "why", "tradeoff"},
					"additionalProperties": false,
				},
			},
			"missing_data": map[string]interface{}{
				"type":  "array",
				"items": textField,
			},
			"confidence": map[string]interface{}{
				"type": "string",
				"enum": []string{string(ConfidenceLow), string(ConfidenceMedium), string(ConfidenceHigh)},
			},
			"disclaimers": map[string]interface{}{
				"type":     "array",
				"minItems": disclaimerCount,
				"maxItems": disclaimerCount,
				"items":    textField,
			},
		},
		"required": []string{
			"summary", "key_numbers", "interpretation",
			"possible_actions", "missing_data", "confidence", "disclaimers",
		},
		"additionalProperties": false,
	}
}
