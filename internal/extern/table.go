package extern

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"restruct/internal/stmt"
)

var (
	ErrEmptyName     = errors.New("extern entry has no name")
	ErrDuplicateName = errors.New("duplicate extern entry")
)

// Entry maps one external name to its target rendering.
type Entry struct {
	Name    string   `toml:"name"`
	Render  string   `toml:"render"`
	Imports []string `toml:"imports"`
	// Value entries render as a bare reference, never as a call.
	Value bool `toml:"value"`
}

// Table is a Resolver backed by a fixed set of entries. Names are compared
// after NFC normalization.
type Table struct {
	entries map[string]Entry
}

// NewTable validates entries and builds the lookup table.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{entries: make(map[string]Entry, len(entries))}
	var errs []error
	for i, e := range entries {
		key := normalize(e.Name)
		if key == "" {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, ErrEmptyName))
			continue
		}
		if _, dup := t.entries[key]; dup {
			errs = append(errs, fmt.Errorf("entry %d: %w: %q", i, ErrDuplicateName, e.Name))
			continue
		}
		if e.Render == "" {
			e.Render = e.Name
		}
		t.entries[key] = e
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

func normalize(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func (t *Table) lookup(name string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[normalize(name)]
	return e, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func (t *Table) CanResolve(name string) bool {
	_, ok := t.lookup(name)
	return ok
}

func (t *Table) RenderCall(name string, args []stmt.Expr) stmt.Expr {
	e, ok := t.lookup(name)
	if !ok {
		return nil
	}
	if e.Value || args == nil {
		return &stmt.Raw{Text: e.Render}
	}
	return &stmt.Call{Func: e.Render, Args: args}
}

func (t *Table) RequiredImports(name string) []string {
	e, ok := t.lookup(name)
	if !ok || len(e.Imports) == 0 {
		return nil
	}
	out := make([]string, len(e.Imports))
	copy(out, e.Imports)
	return out
}
