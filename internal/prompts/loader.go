// Package prompts holds the model prompts as embedded JSON files
// (resume.json, rag.json, roadmap.json), each a map of key to template.
// Templates use {{.Name}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jonathan/career-path/internal/errs"
)

//go:embed *.json
var promptFiles embed.FS

// parsed prompt files by name
var (
	cache   = make(map[string]map[string]string)
	cacheMu sync.RWMutex
)

// Get returns the template stored under key in filename (e.g. "rag.json").
// An unknown file or key is a NotFoundError.
func Get(filename, key string) (string, error) {
	templates, err := loadFile(filename)
	if err != nil {
		return "", err
	}
	template, ok := templates[key]
	if !ok {
		return "", &errs.NotFoundError{Resource: "prompt", ID: filename + "#" + key}
	}
	return template, nil
}

// MustGet is Get for prompts the binary cannot run without.
func MustGet(filename, key string) string {
	template, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return template
}

// Format fills every {{.Key}} placeholder of template in a single pass.
// Substituted values are never scanned again, so a value that itself contains
// a placeholder is inserted literally. Unknown placeholders are left as they are.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		pairs = append(pairs, "{{."+key+"}}", data[key])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Render looks up a prompt and fills its placeholders.
func Render(filename, key string, data map[string]string) (string, error) {
	template, err := Get(filename, key)
	if err != nil {
		return "", err
	}
	return Format(template, data), nil
}

func loadFile(filename string) (map[string]string, error) {
	cacheMu.RLock()
	templates, ok := cache[filename]
	cacheMu.RUnlock()
	if ok {
		return templates, nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, &errs.NotFoundError{Resource: "prompt file", ID: filename, Cause: err}
	}
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, &errs.ConfigError{Message: fmt.Sprintf("prompt file %s is not a JSON object of strings", filename), Cause: err}
	}

	cacheMu.Lock()
	cache[filename] = templates
	cacheMu.Unlock()
	return templates, nil
}

// ClearCache drops the parsed files.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]map[string]string)
	cacheMu.Unlock()
}

// List returns the keys of filename in sorted order.
func List(filename string) ([]string, error) {
	templates, err := loadFile(filename)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(templates))
	for key := range templates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
