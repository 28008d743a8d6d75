package assessment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerValue_UnmarshalJSON_ShapeDetection(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected AnswerValue
	}{
		{"string", `"toko online"`, StringAnswer("toko online")},
		{"number", `4.5`, NumberAnswer(4.5)},
		{"integer", `7`, NumberAnswer(7)},
		{"bool true", `true`, BoolAnswer(true)},
		{"bool false", `false`, BoolAnswer(false)},
		{"null", `null`, NullAnswer()},
		{"string list", `["a","b"]`, StringListAnswer([]string{"a", "b"})},
		{"number list", `[1, 2.5]`, NumberListAnswer([]float64{1, 2.5})},
		{"empty list decodes as string list", `[]`, StringListAnswer([]string{})},
		{
			name: "file object",
			data: `{"fileName":"npwp.pdf","contentType":"application/pdf","sizeBytes":1024}`,
			expected: FileAnswer(FileUpload{
				FileName:    "npwp.pdf",
				ContentType: "application/pdf",
				SizeBytes:   1024,
			}),
		},
		{"object without fileName is null", `{"foo":"bar"}`, NullAnswer()},
		{"mixed list is null", `["a", 1]`, NullAnswer()},
		{"leading whitespace", `   42`, NumberAnswer(42)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v AnswerValue
			require.NoError(t, json.Unmarshal([]byte(tt.data), &v))
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestAnswerValue_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		value    AnswerValue
		expected string
	}{
		{"null", NullAnswer(), `null`},
		{"string", StringAnswer("ya"), `"ya"`},
		{"number", NumberAnswer(3), `3`},
		{"bool", BoolAnswer(true), `true`},
		{"string list", StringListAnswer([]string{"a"}), `["a"]`},
		{"nil string list stays an array", AnswerValue{Kind: AnswerStringList}, `[]`},
		{"nil number list stays an array", AnswerValue{Kind: AnswerNumberList}, `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestAnswerValue_RoundTripInsideResponse(t *testing.T) {
	in := Response{
		QuestionID: "q1",
		SectionID:  "s1",
		Answer:     StringListAnswer([]string{"pos", "marketplace"}),
		Valid:      true,
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Response
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestAnswerValue_IsNull(t *testing.T) {
	assert.True(t, NullAnswer().IsNull())
	assert.True(t, AnswerValue{}.IsNull())
	assert.False(t, StringAnswer("").IsNull())
	assert.False(t, BoolAnswer(false).IsNull())
}
