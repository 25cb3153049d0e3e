// internal/schema/schema.go
//
// JSON Schema checks for plugin config values.
//
// Context
// -------
// A manifest may declare one JSON Schema per config name:
//
//	config_schema:
//	  sitemap:
//	    type: object
//	    required: [enabled]
//	    properties:
//	      enabled: { type: boolean }
//
// Schemas are compiled once when the manifest loads, so a broken schema
// stops the host at boot rather than on the first write.  The config
// store checks every encoded value against the schema for its name; names
// without a schema accept anything.
//
// Notes
// -----
//   - A nil *Set is valid and accepts every value.
//   - Oxford commas, two spaces after periods.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrViolation is the sentinel wrapped by every *Error.
var ErrViolation = errors.New("schema: value rejected")

// Error lists the reasons a value was rejected.
type Error struct {
	Name     string
	Problems []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("schema: %s: %s", e.Name, strings.Join(e.Problems, "; "))
}

func (e *Error) Unwrap() error { return ErrViolation }

// Set is an immutable collection of compiled schemas keyed by config name.
type Set struct {
	byName map[string]*gojsonschema.Schema
}

// Compile builds a Set from raw schema documents.  An empty map yields nil.
func Compile(raw map[string]any) (*Set, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	set := &Set{byName: make(map[string]*gojsonschema.Schema, len(raw))}
	for name, doc := range raw {
		s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
		if err != nil {
			return nil, fmt.Errorf("schema: compile %q: %w", name, err)
		}
		set.byName[name] = s
	}
	return set, nil
}

// Names returns the config names that carry a schema, sorted.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.byName))
	for n := range s.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Validate checks the JSON document data against the schema for name.
func (s *Set) Validate(name string, data []byte) error {
	if s == nil {
		return nil
	}
	sch, ok := s.byName[name]
	if !ok {
		return nil
	}
	res, err := sch.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema: validate %q: %w", name, err)
	}
	if res.Valid() {
		return nil
	}
	e := &Error{Name: name}
	for _, d := range res.Errors() {
		e.Problems = append(e.Problems, d.String())
	}
	return e
}
