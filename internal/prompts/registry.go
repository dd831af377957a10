package prompts

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/common/*.tmpl templates/system/*.tmpl templates/case/*.tmpl templates/defect/*.tmpl templates/evidence/*.tmpl
var templateFS embed.FS

// registry holds parsed templates and provides thread-safe access.
type registry struct {
	mu        sync.RWMutex
	templates map[PromptID]*template.Template
	funcMap   template.FuncMap
}

// globalRegistry is the singleton registry instance.
//
//nolint:gochecknoglobals // Templates are embedded and parsed once
var globalRegistry = &registry{
	templates: make(map[PromptID]*template.Template),
	funcMap:   defaultFuncMap(),
}

func defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"hasContent": func(s string) bool {
			return strings.TrimSpace(s) != ""
		},
		// orDefault returns the first non-blank value.
		"orDefault": func(values ...string) string {
			for _, v := range values {
				if strings.TrimSpace(v) != "" {
					return v
				}
			}
			return ""
		},
		"quote": func(s string) string { return fmt.Sprintf("%q", s) },
	}
}

//nolint:gochecknoinits // Embedded templates are parsed at package initialization
func init() {
	if err := globalRegistry.loadAll(); err != nil {
		panic(fmt.Sprintf("failed to load embedded templates: %v", err))
	}
}

func (r *registry) loadAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	common, err := r.loadCommonTemplates()
	if err != nil {
		return fmt.Errorf("loading common templates: %w", err)
	}

	return fs.WalkDir(templateFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".tmpl") || strings.HasPrefix(p, "templates/common/") {
			return nil
		}

		content, err := templateFS.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", p, err)
		}

		id := pathToPromptID(p)
		tmpl := template.New(string(id)).Funcs(r.funcMap).Option("missingkey=error")
		for name, c := range common {
			if _, err := tmpl.AddParseTree(name, c.Tree); err != nil {
				return fmt.Errorf("adding common template %s: %w", name, err)
			}
		}
		if _, err := tmpl.Parse(string(content)); err != nil {
			return fmt.Errorf("parsing template %s: %w", p, err)
		}
		r.templates[id] = tmpl
		return nil
	})
}

// loadCommonTemplates parses the partials every prompt may include as
// {{template "common/<name>" .}}.
func (r *registry) loadCommonTemplates() (map[string]*template.Template, error) {
	entries, err := templateFS.ReadDir("templates/common")
	if err != nil {
		return nil, err
	}
	common := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tmpl") {
			continue
		}
		p := path.Join("templates/common", entry.Name())
		content, err := templateFS.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading common template %s: %w", p, err)
		}
		name := "common/" + strings.TrimSuffix(entry.Name(), ".tmpl")
		tmpl, err := template.New(name).Funcs(r.funcMap).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parsing common template %s: %w", p, err)
		}
		common[name] = tmpl
	}
	return common, nil
}

// pathToPromptID maps templates/case/generate.tmpl to case/generate.
func pathToPromptID(p string) PromptID {
	return PromptID(strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".tmpl"))
}

func (r *registry) get(id PromptID) (*template.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return tmpl, nil
}

func (r *registry) list() []PromptID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]PromptID, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
