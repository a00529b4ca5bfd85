// Package rules loads the declarative check document.
//
// A document has a per-file section, where each group names a file and
// lists checks against it, and a cross-file section whose checks name a
// source and a target file. Loading performs no validation against the data
// root; a rule naming a missing file is reported when it is evaluated.
package rules

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned for documents that are not a YAML mapping
// of the expected shape.
var ErrInvalidDocument = errors.New("invalid rule document")

// Scope tells whether a rule targets one file or relates two.
type Scope string

const (
	ScopeFile  Scope = "file"
	ScopeCross Scope = "cross"
)

// Definition is one declared check.
type Definition struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Type   string         `json:"type"`
	File   string         `json:"file,omitempty"`
	Scope  Scope          `json:"scope"`
	Params map[string]any `json:"params,omitempty"`
}

// Set is the parsed document, split by scope and kept in declaration order.
type Set struct {
	PerFile []Definition
	Cross   []Definition
}

// Len returns the total number of rules.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.PerFile) + len(s.Cross)
}

// All returns per-file rules followed by cross-file rules.
func (s *Set) All() []Definition {
	if s == nil {
		return nil
	}
	out := make([]Definition, 0, s.Len())
	out = append(out, s.PerFile...)
	return append(out, s.Cross...)
}

// Types returns the distinct check types in use, sorted.
func (s *Set) Types() []string {
	seen := map[string]bool{}
	for _, d := range s.All() {
		seen[d.Type] = true
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

type fileGroup struct {
	File   string           `yaml:"file"`
	Checks []map[string]any `yaml:"checks"`
}

type document struct {
	PerFileChecks   []fileGroup      `yaml:"per_file_checks"`
	Files           []fileGroup      `yaml:"files"`
	CrossFileChecks []map[string]any `yaml:"cross_file_checks"`
}

// reserved keys are lifted into Definition fields; everything else lands in
// Params.
var reserved = map[string]bool{"id": true, "title": true, "type": true, "file": true}

// Load reads and parses the document at path. An empty path means no rules.
func Load(path string) (*Set, error) {
	if strings.TrimSpace(path) == "" {
		return &Set{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule document %s: %w", path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse decodes a rule document. A document with no content yields an
// empty set.
func Parse(data []byte) (*Set, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if len(root.Content) == 0 {
		return &Set{}, nil
	}
	if root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrInvalidDocument)
	}

	var doc document
	if err := root.Content[0].Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	set := &Set{}
	groups := make([]fileGroup, 0, len(doc.PerFileChecks)+len(doc.Files))
	groups = append(groups, doc.PerFileChecks...)
	groups = append(groups, doc.Files...)
	for _, g := range groups {
		for j, raw := range g.Checks {
			def := newDefinition(raw, ScopeFile)
			if def.File == "" {
				def.File = g.File
			}
			if def.ID == "" {
				def.ID = fmt.Sprintf("%s#%d", def.File, j+1)
			}
			if def.Title == "" {
				def.Title = def.ID
			}
			set.PerFile = append(set.PerFile, def)
		}
	}
	for i, raw := range doc.CrossFileChecks {
		def := newDefinition(raw, ScopeCross)
		if def.ID == "" {
			def.ID = fmt.Sprintf("cross#%d", i+1)
		}
		if def.Title == "" {
			def.Title = def.ID
		}
		set.Cross = append(set.Cross, def)
	}
	return set, nil
}

func newDefinition(raw map[string]any, scope Scope) Definition {
	def := Definition{
		ID:     strings.TrimSpace(cast.ToString(raw["id"])),
		Title:  cast.ToString(raw["title"]),
		Type:   strings.TrimSpace(cast.ToString(raw["type"])),
		File:   strings.TrimSpace(cast.ToString(raw["file"])),
		Scope:  scope,
		Params: make(map[string]any, len(raw)),
	}
	for k, v := range raw {
		if !reserved[k] {
			def.Params[k] = v
		}
	}
	return def
}
