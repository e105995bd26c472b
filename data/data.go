// Package data embeds the reference seed catalog.
package data

import _ "embed"

// CareersYAML is the five-career reference catalog.
//
//go:embed careers.yaml
var CareersYAML []byte
