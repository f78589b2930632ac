package advisor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validPayload returns a fully conformant payload as a mutable map
func validPayload() map[string]interface{} {
	keyNumber := func(label string) map[string]interface{} {
		return map[string]interface{}{
			"label":    label,
			"value":    "45.2",
			"unit":     "%",
			"evidence": "top holding weight from the portfolio snapshot",
		}
	}
	action := func(name string) map[string]interface{} {
		return map[string]interface{}{
			"action":   name,
			"why":      "reduces single-name concentration",
			"tradeoff": "may realize taxable gains",
		}
	}

	return map[string]interface{}{
		"summary":         "Your portfolio is heavily concentrated in one position.",
		"key_numbers":     []interface{}{keyNumber("Top position weight"), keyNumber("Total value"), keyNumber("Total P&L")},
		"interpretation":  "A single position dominating the portfolio amplifies idiosyncratic risk.",
		"possible_actions": []interface{}{action("Review position sizing"), action("Diversify across sectors")},
		"missing_data":    []interface{}{"purchase dates"},
		"confidence":      "high",
		"disclaimers":     []interface{}{"This is not investment advice.", "Past performance does not predict future results."},
	}
}

func marshal(t *testing.T, payload interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return raw
}

func TestValidateResponse_ValidPayload(t *testing.T) {
	resp := ValidateResponse(marshal(t, validPayload()))
	require.NotNil(t, resp)

	assert.Equal(t, "Your portfolio is heavily concentrated in one position.", resp.Summary)
	assert.Len(t, resp.KeyNumbers, 3)
	assert.Equal(t, "Top position weight", resp.KeyNumbers[0].Label)
	assert.Equal(t, "%", resp.KeyNumbers[0].Unit)
	assert.Len(t, resp.PossibleActions, 2)
	assert.Equal(t, "Review position sizing", resp.PossibleActions[0].Action)
	assert.Equal(t, []string{"purchase dates"}, resp.MissingData)
	assert.Equal(t, ConfidenceHigh, resp.Confidence)
	assert.Len(t, resp.Disclaimers, 2)
}

func TestValidateResponse_MissingAnyRequiredField(t *testing.T) {
	fields := []string{
		"summary", "key_numbers", "interpretation",
		"possible_actions", "missing_data", "confidence", "disclaimers",
	}

	for _, field := range fields {
		t.Run(field, func(t *testing.T) {
			payload := validPayload()
			delete(payload, field)
			assert.Nil(t, ValidateResponse(marshal(t, payload)))
		})
	}
}

func TestValidateResponse_KeyNumberCardinality(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   bool
	}{
		{"zero entries", 0, false},
		{"two entries", 2, false},
		{"three entries", 3, true},
		{"four entries", 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validPayload()
			entries := make([]interface{}, 0, tt.length)
			for i := 0; i < tt.length; i++ {
				entries = append(entries, map[string]interface{}{
					"label": "l", "value": "v", "unit": "u", "evidence": "e",
				})
			}
			payload["key_numbers"] = entries

			resp := ValidateResponse(marshal(t, payload))
			if tt.want {
				assert.NotNil(t, resp)
			} else {
				assert.Nil(t, resp)
			}
		})
	}
}

func TestValidateResponse_ActionCardinality(t *testing.T) {
	for _, length := range []int{0, 1, 3} {
		payload := validPayload()
		entries := make([]interface{}, 0, length)
		for i := 0; i < length; i++ {
			entries = append(entries, map[string]interface{}{
				"action": "a", "why": "w", "tradeoff": "t",
			})
		}
		payload["possible_actions"] = entries
		assert.Nil(t, ValidateResponse(marshal(t, payload)), "length %d must fail", length)
	}
}

func TestValidateResponse_DisclaimerCardinality(t *testing.T) {
	for _, length := range []int{0, 1, 3} {
		payload := validPayload()
		entries := make([]interface{}, 0, length)
		for i := 0; i < length; i++ {
			entries = append(entries, "disclaimer")
		}
		payload["disclaimers"] = entries
		assert.Nil(t, ValidateResponse(marshal(t, payload)), "length %d must fail", length)
	}
}

func TestValidateResponse_ConfidenceEnum(t *testing.T) {
	for _, valid := range []string{"low", "medium", "high"} {
		payload := validPayload()
		payload["confidence"] = valid
		assert.NotNil(t, ValidateResponse(marshal(t, payload)), "confidence %q must pass", valid)
	}

	for _, invalid := range []interface{}{"certain", "HIGH", "", 3, nil} {
		payload := validPayload()
		payload["confidence"] = invalid
		assert.Nil(t, ValidateResponse(marshal(t, payload)), "confidence %v must fail", invalid)
	}
}

func TestValidateResponse_FieldTypeChecks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p map[string]interface{})
	}{
		{"summary not text", func(p map[string]interface{}) { p["summary"] = 42 }},
		{"interpretation not text", func(p map[string]interface{}) { p["interpretation"] = []interface{}{} }},
		{"key_numbers element not object", func(p map[string]interface{}) {
			p["key_numbers"] = []interface{}{"a", "b", "c"}
		}},
		{"key_number missing evidence", func(p map[string]interface{}) {
			p["key_numbers"] = []interface{}{
				map[string]interface{}{"label": "l", "value": "v", "unit": "u"},
				map[string]interface{}{"label": "l", "value": "v", "unit": "u", "evidence": "e"},
				map[string]interface{}{"label": "l", "value": "v", "unit": "u", "evidence": "e"},
			}
		}},
		{"action why not text", func(p map[string]interface{}) {
			p["possible_actions"] = []interface{}{
				map[string]interface{}{"action": "a", "why": 1, "tradeoff": "t"},
				map[string]interface{}{"action": "a", "why": "w", "tradeoff": "t"},
			}
		}},
		{"missing_data not array", func(p map[string]interface{}) { p["missing_data"] = "none" }},
		{"disclaimer element not text", func(p map[string]interface{}) {
			p["disclaimers"] = []interface{}{"ok", 7}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validPayload()
			tt.mutate(payload)
			assert.Nil(t, ValidateResponse(marshal(t, payload)))
		})
	}
}

func TestValidateResponse_NonObjectPayloads(t *testing.T) {
	for _, raw := range []string{"null", `"text"`, "[]", "42", "not json at all"} {
		assert.Nil(t, ValidateResponse(json.RawMessage(raw)), "payload %q must fail", raw)
	}
}

func TestValidateResponse_ExtraFieldsTolerated(t *testing.T) {
	payload := validPayload()
	payload["model_notes"] = "anything"
	payload["debug"] = map[string]interface{}{"tokens": 123}

	assert.NotNil(t, ValidateResponse(marshal(t, payload)))
}

func TestValidateResponse_EmptyMissingDataAllowed(t *testing.T) {
	payload := validPayload()
	payload["missing_data"] = []interface{}{}

	resp := ValidateResponse(marshal(t, payload))
	require.NotNil(t, resp)
	assert.Empty(t, resp.MissingData)
}

func TestValidateResponse_MissingDataKeepsNonStringElements(t *testing.T) {
	payload := validPayload()
	payload["missing_data"] = []interface{}{
		"purchase dates",
		42,
		map[string]interface{}{"field": "cost_basis"},
	}

	resp := ValidateResponse(marshal(t, payload))
	require.NotNil(t, resp)
	assert.Equal(t, []string{"purchase dates", "42", `{"field":"cost_basis"}`}, resp.MissingData)
}

func TestResponseSchema_CarriesCardinalities(t *testing.T) {
	schema := ResponseSchema()

	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)

	keyNumbers := props["key_numbers"].(map[string]interface{})
	assert.Equal(t, 3, keyNumbers["minItems"])
	assert.Equal(t, 3, keyNumbers["maxItems"])

	actions := props["possible_actions"].(map[string]interface{})
	assert.Equal(t, 2, actions["minItems"])
	assert.Equal(t, 2, actions["maxItems"])

	disclaimers := props["disclaimers"].(map[string]interface{})
	assert.Equal(t, 2, disclaimers["minItems"])
	assert.Equal(t, 2, disclaimers["maxItems"])

	required, ok := schema["required"].([]string)
	require.True(t, ok)
	assert.Len(t, required, 7)
}
