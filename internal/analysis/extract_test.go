package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```  "))
	assert.Equal(t, `plain`, stripFences("  plain \n"))
}

func TestExtractCandidates(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "fenced object",
			text: "```json\n{\"summary\":\"x\"}\n```",
			want: []string{`{"summary":"x"}`},
		},
		{
			name: "prose around object",
			text: "Sure! Here is the analysis:\n{\"summary\":\"x\"}\nLet me know if you need more.",
			want: []string{`{"summary":"x"}`},
		},
		{
			name: "braces inside strings",
			text: `{"s":"a } b","n":{"x":1}} then {"other":true}`,
			want: []string{
				`{"s":"a } b","n":{"x":1}}`,
				`{"s":"a } b","n":{"x":1}} then {"other":true}`,
			},
		},
		{
			name: "escaped quote inside string",
			text: `{"s":"say \"}\" loudly"} tail}`,
			want: []string{
				`{"s":"say \"}\" loudly"}`,
				`{"s":"say \"}\" loudly"} tail}`,
			},
		},
		{
			name: "unbalanced falls back to greedy span",
			text: `{"a": {"b": 1}`,
			want: []string{`{"a": {"b": 1}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCandidates(tt.text))
		})
	}
}

func TestExtractCandidates_NoObject(t *testing.T) {
	for _, text := range []string{"", "no json here", "} backwards {"} {
		assert.Empty(t, extractCandidates(text), text)

		_, err := decodeCompletion[map[string]any](text)
		assert.ErrorIs(t, err, ErrNoJSON, text)
	}
}

func TestDecodeCompletion_FencedMatchesUnfenced(t *testing.T) {
	obj := map[string]any{"summary": "gap in late-night options", "personas": []any{}}
	b, err := json.Marshal(obj)
	require.NoError(t, err)

	plain, err := decodeCompletion[map[string]any](string(b))
	require.NoError(t, err)
	fenced, err := decodeCompletion[map[string]any]("```json\n" + string(b) + "\n```")
	require.NoError(t, err)

	assert.Equal(t, obj, *plain)
	assert.Equal(t, *plain, *fenced)
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trailing comma in object", `{"summary":"x",}`, `{"summary":"x"}`},
		{"trailing comma in array", `{"a":[1,2, ]}`, `{"a":[1,2 ]}`},
		{"bare keys", `{summary: "x", count: 2}`, `{"summary": "x", "count": 2}`},
		{"single quoted values", `{"summary": 'x y'}`, `{"summary": "x y"}`},
		{"valid json untouched", `{"a":"b","c":[1]}`, `{"a":"b","c":[1]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RepairJSON(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, json.Valid([]byte(got)), got)
		})
	}
}

func TestDecodeCompletion(t *testing.T) {
	type payload struct {
		Summary string `json:"summary"`
	}

	t.Run("valid", func(t *testing.T) {
		p, err := decodeCompletion[payload](`{"summary":"ok"}`)
		require.NoError(t, err)
		assert.Equal(t, "ok", p.Summary)
	})

	t.Run("valid json with apostrophes is not repaired", func(t *testing.T) {
		p, err := decodeCompletion[payload](`{"summary": "it's a 'quick' stop, isn't it"}`)
		require.NoError(t, err)
		assert.Equal(t, "it's a 'quick' stop, isn't it", p.Summary)
	})

	t.Run("repaired", func(t *testing.T) {
		p, err := decodeCompletion[payload]("```json\n{summary: 'ok',}\n```")
		require.NoError(t, err)
		assert.Equal(t, "ok", p.Summary)
	})

	t.Run("unterminated string fails", func(t *testing.T) {
		p, err := decodeCompletion[payload](`{"summary":"ok","note":"unterminated}`)
		require.Error(t, err)
		assert.Nil(t, p)
	})

	t.Run("unrepairable returns original parse error", func(t *testing.T) {
		_, err := decodeCompletion[payload](`{"summary": "abc}`)
		require.Error(t, err)

		var syn *json.SyntaxError
		assert.ErrorAs(t, err, &syn)
	})

	t.Run("no object", func(t *testing.T) {
		_, err := decodeCompletion[payload]("I cannot help with that.")
		assert.ErrorIs(t, err, ErrNoJSON)
	})
}
