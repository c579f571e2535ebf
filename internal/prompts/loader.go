// Package prompts provides a loader for externalized model prompt templates.
// Prompt files are JSON objects of key -> template, embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Prompt files
const (
	Discovery = "discovery.json"
	Tailoring = "tailoring.json"
	Editing   = "editing.json"
	Executor  = "executor.json"
)

//go:embed *.json
var promptFiles embed.FS

var (
	files   = make(map[string]map[string]string)
	filesMu sync.RWMutex
)

// Get retrieves a prompt template by file and key.
func Get(file, key string) (string, error) {
	templates, err := loadFile(file)
	if err != nil {
		return "", err
	}

	tmpl, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, file)
	}
	return tmpl, nil
}

// MustGet retrieves a prompt template, panicking if it does not exist.
// Prompt files are embedded, so a miss is a programming error.
func MustGet(file, key string) string {
	tmpl, err := Get(file, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return tmpl
}

// Render loads a template and substitutes data into it
func Render(file, key string, data map[string]string) string {
	return Format(MustGet(file, key), data)
}

// Format replaces {{.Key}} placeholders with values from data.
// Unknown placeholders are left untouched.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func loadFile(file string) (map[string]string, error) {
	filesMu.RLock()
	templates, ok := files[file]
	filesMu.RUnlock()
	if ok {
		return templates, nil
	}

	data, err := promptFiles.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", file, err)
	}
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", file, err)
	}

	filesMu.Lock()
	files[file] = templates
	filesMu.Unlock()
	return templates, nil
}

// ClearCache drops parsed prompt files. Useful for testing.
func ClearCache() {
	filesMu.Lock()
	files = make(map[string]map[string]string)
	filesMu.Unlock()
}

// List returns the sorted prompt keys of a file.
func List(file string) ([]string, error) {
	templates, err := loadFile(file)
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
