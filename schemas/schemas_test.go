package schemas

import (
	"encoding/json"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	files, err := fs.Glob(FS, "*.schema.json")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, schemaFile := range files {
		t.Run(schemaFile, func(t *testing.T) {
			var schemaObj map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(MustRead(schemaFile)), &schemaObj))

			_, hasType := schemaObj["type"]
			_, hasSchema := schemaObj["$schema"]
			assert.True(t, hasType && hasSchema, "schema should declare $schema and type")

			_, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(MustRead(schemaFile)))
			assert.NoError(t, err, "schema should compile")
		})
	}
}

func TestProfileSchema_Examples(t *testing.T) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(MustRead(ProfileFile)))
	require.NoError(t, err)

	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{
			name:  "complete",
			doc:   `{"name":"John Doe","email":"j@d.io","phone":"555","skills":["Python"],"education":[{"degree":"BSc","institution":"MIT","year":2019}],"experience":[{"role":"Dev","company":"Acme","duration":"2y","description":"Built APIs"}]}`,
			valid: true,
		},
		{name: "nulls", doc: `{"name":null,"email":null,"phone":null,"skills":null}`, valid: true},
		{name: "empty object", doc: `{}`, valid: true},
		{name: "array root", doc: `[]`, valid: false},
		{name: "skill objects", doc: `{"skills":[{"name":"Python"}]}`, valid: false},
		{name: "education string", doc: `{"education":"BSc"}`, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.Validate(gojsonschema.NewStringLoader(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid(), "%v", result.Errors())
		})
	}
}

func TestMustRead_Panics(t *testing.T) {
	assert.Panics(t, func() { MustRead("missing.schema.json") })
}
