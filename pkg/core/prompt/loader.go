package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// LoadFromDirectory loads every prompts/**/*.json under baseDir into the global
// registry, overriding built-ins with the same ID. A missing directory is not an error.
func LoadFromDirectory(baseDir string) error {
	return Get().LoadDirectory(filepath.Join(baseDir, "prompts"))
}

// LoadDirectory registers every .json template found under dir.
func (r *Registry) LoadDirectory(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		log.Printf("[prompt.Loader] No prompt directory at %s, using built-ins", dir)
		return nil
	}

	loaded := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		var pt PromptTemplate
		if err := json.Unmarshal(data, &pt); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		rel, _ := filepath.Rel(dir, path)
		if pt.ID == "" {
			pt.ID = strings.ReplaceAll(strings.TrimSuffix(rel, ".json"), string(filepath.Separator), ".")
		}
		if pt.Category == "" {
			if parts := strings.Split(rel, string(filepath.Separator)); len(parts) > 1 {
				pt.Category = parts[0]
			} else {
				pt.Category = "default"
			}
		}
		if err := r.Register(&pt); err != nil {
			return fmt.Errorf("failed to register %s: %w", pt.ID, err)
		}
		loaded++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}

	log.Printf("[prompt.Loader] Loaded %d prompts from %s", loaded, dir)
	return nil
}

// RenderUserPrompt executes the user prompt template with the given context.
func RenderUserPrompt(pt *PromptTemplate, ctx *PromptExecutionContext) (string, error) {
	if pt.UserPromptTmpl == "" {
		return "", nil
	}
	tmpl, err := template.New(pt.ID).Option("missingkey=error").Parse(pt.UserPromptTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx.Variables); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
