package extern

import (
	"strings"

	"restruct/internal/ir"
)

// TypeTable renders IR types through a name mapping. Base kinds are looked
// up by their IR spelling ("int", "bool", ...); named types by their name.
// Unmapped names render as their IR spelling.
type TypeTable struct {
	names map[string]string
}

// NewTypeTable copies the mapping, normalizing keys.
func NewTypeTable(mapping map[string]string) *TypeTable {
	t := &TypeTable{names: make(map[string]string, len(mapping))}
	for k, v := range mapping {
		t.names[normalize(k)] = v
	}
	return t
}

func (t *TypeTable) name(n string) string {
	if t != nil {
		if v, ok := t.names[normalize(n)]; ok {
			return v
		}
	}
	return n
}

func (t *TypeTable) RenderType(ty ir.Type) string {
	switch ty.Kind {
	case ir.TypeVoid, ir.TypeBool, ir.TypeInt, ir.TypeFloat, ir.TypeString:
		return t.name(ty.String())
	case ir.TypeNamed:
		return t.name(ty.Name)
	case ir.TypeTuple:
		parts := make([]string, len(ty.Elems))
		for i, e := range ty.Elems {
			parts[i] = t.RenderType(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ir.TypeArray:
		if len(ty.Elems) == 0 {
			return t.name("array")
		}
		return t.RenderType(ty.Elems[0]) + "[]"
	}
	return t.name("unknown")
}
