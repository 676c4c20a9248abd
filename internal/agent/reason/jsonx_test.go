package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPlainObject(t *testing.T) {
	out, err := ExtractJSON(`{"action": "modify_item", "confidence": 0.9}`)
	require.NoError(t, err)
	assert.Equal(t, "modify_item", jsonString(out, "action"))
	assert.InDelta(t, 0.9, jsonFloat(out, "confidence"), 1e-9)
}

func TestExtractJSONFencedBlock(t *testing.T) {
	raw := "Here you go:\n```json\n{\"response\": \"done\"}\n```\nanything else?"
	out, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, "done", jsonString(out, "response"))
}

func TestExtractJSONStripsThinkingTag(t *testing.T) {
	raw := "<thought> considering options </thought>\n{\"action\": \"none\"}"
	out, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, "none", jsonString(out, "action"))
}

func TestExtractJSONEmbeddedInProse(t *testing.T) {
	raw := `The best option is clear. {"selected_vendor": "zepto", "reasoning": "cheapest {per kg}"} Hope that helps.`
	out, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, "zepto", jsonString(out, "selected_vendor"))
	assert.Equal(t, "cheapest {per kg}", jsonString(out, "reasoning"))
}

func TestExtractJSONHandlesBracesInsideStrings(t *testing.T) {
	raw := `{"response": "use \"2kg\" like this: {qty}", "action": "none"}`
	out, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, "none", jsonString(out, "action"))
}

func TestExtractJSONNoObject(t *testing.T) {
	_, err := ExtractJSON("sorry, I cannot help with that")
	assert.Error(t, err)
}

func TestJSONAccessors(t *testing.T) {
	out, err := ExtractJSON(`{
		"name": "  rice  ",
		"qty": "2.5",
		"params": {"product_name": "groundnut"},
		"items": ["a", " b ", "", 3]
	}`)
	require.NoError(t, err)

	assert.Equal(t, "rice", jsonString(out, "name"))
	assert.InDelta(t, 2.5, jsonFloat(out, "qty"), 1e-9)
	assert.Equal(t, "groundnut", jsonString(jsonObject(out, "params"), "product_name"))
	assert.Equal(t, []string{"a", "b"}, jsonStringSlice(out, "items"))

	assert.Equal(t, "", jsonString(out, "missing"))
	assert.Zero(t, jsonFloat(out, "missing"))
	assert.Empty(t, jsonObject(out, "missing"))
	assert.Nil(t, jsonStringSlice(out, "missing"))
}

func TestParseCorrectionActionClosedSet(t *testing.T) {
	assert.Equal(t, ActionModify, ParseCorrectionAction("modify_item"))
	assert.Equal(t, ActionRemove, ParseCorrectionAction("remove_item"))
	assert.Equal(t, ActionAdd, ParseCorrectionAction("add_item"))
	assert.Equal(t, ActionRecompare, ParseCorrectionAction("recompare"))
	assert.Equal(t, ActionNone, ParseCorrectionAction("none"))
	assert.Equal(t, ActionNone, ParseCorrectionAction("delete_everything"))
	assert.Equal(t, ActionNone, ParseCorrectionAction(""))
}
