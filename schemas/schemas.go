// Package schemas embeds the JSON Schemas of model-produced documents.
package schemas

import "embed"

// FS holds every *.schema.json file of this directory.
//
//go:embed *.schema.json
var FS embed.FS

// ProfileFile is the schema a résumé extraction must satisfy.
const ProfileFile = "profile.schema.json"

// MustRead returns the content of an embedded schema file.
func MustRead(name string) string {
	data, err := FS.ReadFile(name)
	if err != nil {
		panic("schemas: " + err.Error())
	}
	return string(data)
}
