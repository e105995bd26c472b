// Package catalog loads and validates the seed catalog of career descriptions.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/career-path/data"
	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/types"
)

// Entry is one career of the seed catalog.
type Entry struct {
	ID          string `yaml:"id,omitempty" json:"id,omitempty" validate:"omitempty,max=64"`
	Role        string `yaml:"role" json:"role" validate:"required,max=120"`
	Description string `yaml:"description" json:"description" validate:"required"`
	Category    string `yaml:"category" json:"category" validate:"required,max=120"`
}

type file struct {
	Careers []Entry `yaml:"careers" json:"careers" validate:"required,min=1,dive"`
}

// Format of a catalog file
type Format string

// Supported formats
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var validate = validator.New()

// Load reads a catalog file. The format follows the extension (.json, otherwise YAML).
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &errs.NotFoundError{Resource: "seed catalog", ID: path, Cause: err}
		}
		return nil, &errs.InputError{Message: fmt.Sprintf("failed to read seed catalog %s", path), Cause: err}
	}

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}
	return Parse(data, format)
}

// Default returns the embedded reference catalog.
func Default() []Entry {
	entries, err := Parse(data.CareersYAML, FormatYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return entries
}

// LoadOrDefault loads path, or the embedded catalog when path is empty.
func LoadOrDefault(path string) ([]Entry, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes, validates and assigns ids to catalog entries.
func Parse(raw []byte, format Format) ([]Entry, error) {
	var f file
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(raw, &f)
	case FormatYAML:
		err = yaml.Unmarshal(raw, &f)
	default:
		return nil, &errs.InputError{Message: fmt.Sprintf("unsupported catalog format %q", format)}
	}
	if err != nil {
		return nil, &errs.InputError{Message: "failed to parse seed catalog", Cause: err}
	}

	for i := range f.Careers {
		e := &f.Careers[i]
		e.Role = strings.TrimSpace(e.Role)
		e.Description = strings.TrimSpace(e.Description)
		e.Category = strings.TrimSpace(e.Category)
		e.ID = strings.TrimSpace(e.ID)
	}

	if err := validate.Struct(f); err != nil {
		return nil, &errs.InputError{Message: "invalid seed catalog", Cause: err}
	}

	seen := make(map[string]string, len(f.Careers))
	for i := range f.Careers {
		e := &f.Careers[i]
		if e.ID == "" {
			e.ID = Slug(e.Role)
		}
		if e.ID == "" {
			return nil, &errs.InputError{Message: fmt.Sprintf("role %q yields an empty id", e.Role)}
		}
		if prev, ok := seen[e.ID]; ok {
			return nil, &errs.InputError{Message: fmt.Sprintf("duplicate id %q for roles %q and %q", e.ID, prev, e.Role)}
		}
		seen[e.ID] = e.Role
	}
	return f.Careers, nil
}

// Slug derives a stable id from a role name: "DevOps Engineer" -> "devops-engineer".
func Slug(role string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(role) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return sb.String()
}

// EmbeddingInput is the text embedded for the entry. The role name is
// included so role-only queries match.
func (e Entry) EmbeddingInput() string {
	return e.Role + ": " + e.Description
}

// Document converts the entry into an index document without embedding.
func (e Entry) Document() types.CareerDocument {
	return types.CareerDocument{
		ID:   e.ID,
		Text: e.Description,
		Metadata: map[string]string{
			types.MetaRole:     e.Role,
			types.MetaCategory: e.Category,
		},
	}
}
