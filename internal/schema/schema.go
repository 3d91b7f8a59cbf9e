// Package schema validates command payloads against CUE definitions.
//
// A Schema is compiled once from CUE source. Validate unifies a Go value
// with a named definition and requires the result to be concrete, so
// missing fields, extra fields (definitions are closed) and constraint
// violations are all reported.
package schema

import (
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// Schema is a compiled set of CUE definitions.
// Safe for concurrent use; evaluation is serialized internally.
type Schema struct {
	mu    sync.Mutex
	ctx   *cue.Context
	value cue.Value
}

// Compile parses and evaluates CUE source.
func Compile(src string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %s", details(err))
	}
	return &Schema{ctx: ctx, value: v}, nil
}

// MustCompile is like Compile but panics on error.
// Use only for embedded sources known to be valid.
func MustCompile(src string) *Schema {
	s, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks value against the definition at path (e.g. "#Deposit").
func (s *Schema) Validate(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def := s.value.LookupPath(cue.ParsePath(path))
	if !def.Exists() {
		return fmt.Errorf("validate: unknown definition %q", path)
	}

	encoded := s.ctx.Encode(value)
	if err := encoded.Err(); err != nil {
		return fmt.Errorf("validate %s: encode: %s", path, details(err))
	}

	unified := def.Unify(encoded)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validate %s: %s", path, details(err))
	}
	return nil
}

// Has reports whether the schema defines path.
func (s *Schema) Has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value.LookupPath(cue.ParsePath(path)).Exists()
}

// details flattens a CUE error list into one line.
func details(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}
