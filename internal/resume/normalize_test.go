package resume

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSkills(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil", input: nil, expected: []string{}},
		{name: "case duplicates keep first", input: []string{"Python", "python", "PYTHON"}, expected: []string{"Python"}},
		{name: "order preserved", input: []string{"SQL", "Go", "sql", "Rust"}, expected: []string{"SQL", "Go", "Rust"}},
		{name: "whitespace collapsed", input: []string{"  Machine   Learning ", "machine learning"}, expected: []string{"Machine Learning"}},
		{name: "blanks dropped", input: []string{"", "  ", "Docker"}, expected: []string{"Docker"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSkills(tt.input))
		})
	}
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"2019"`, "2019"},
		{`2019`, "2019"},
		{`3.5`, "3.5"},
		{`null`, ""},
		{`"  padded "`, "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var f flexString
			require.NoError(t, json.Unmarshal([]byte(tt.input), &f))
			assert.Equal(t, tt.expected, f.String())
		})
	}

	var f flexString
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &f))
}

func TestToProfile_DropsBlankEntries(t *testing.T) {
	var e extracted
	require.NoError(t, json.Unmarshal([]byte(`{
		"education": [{"degree": null, "institution": "", "year": null}, {"degree": "MSc"}],
		"experience": [{}, {"role": "Engineer", "company": "Initech"}]
	}`), &e))

	p := e.toProfile("raw")
	require.Len(t, p.Education, 1)
	assert.Equal(t, "MSc", p.Education[0].Degree)
	require.Len(t, p.Experience, 1)
	assert.Equal(t, "Initech", p.Experience[0].Company)
	assert.Equal(t, "raw", p.RawText)
}
