package ir

import (
	"strconv"
	"strings"
)

// ConstructKind is the structured construct a block belongs to.
type ConstructKind uint8

const (
	ConstructNone ConstructKind = iota
	ConstructIf
	ConstructFor
	ConstructForEach
	ConstructWhile
	ConstructDo
	ConstructSwitch
	ConstructTry
	ConstructWith
)

var constructNames = map[string]ConstructKind{
	"if":      ConstructIf,
	"for":     ConstructFor,
	"foreach": ConstructForEach,
	"while":   ConstructWhile,
	"do":      ConstructDo,
	"switch":  ConstructSwitch,
	"try":     ConstructTry,
	"with":    ConstructWith,
}

func (k ConstructKind) String() string {
	for name, kind := range constructNames {
		if kind == k {
			return name
		}
	}
	return ""
}

// Role is the part of a construct a block plays.
type Role uint8

const (
	RoleNone Role = iota
	RoleThen
	RoleElse
	RoleEnd
	RoleBody
	RoleInc
	RoleCond
)

var roleNames = map[string]Role{
	"then": RoleThen,
	"else": RoleElse,
	"end":  RoleEnd,
	"body": RoleBody,
	"inc":  RoleInc,
	"cond": RoleCond,
}

func (r Role) String() string {
	for name, role := range roleNames {
		if role == r {
			return name
		}
	}
	return ""
}

// Region tags a block with the construct kind, construct id and role the
// producer assigned to it. A zero Region means the block is untagged.
type Region struct {
	Kind ConstructKind `json:"kind,omitempty"`
	ID   int           `json:"id,omitempty"`
	Role Role          `json:"role,omitempty"`
}

func (r Region) IsZero() bool {
	return r.Kind == ConstructNone && r.Role == RoleNone
}

// SameConstruct reports whether both tags name the same construct instance.
func (r Region) SameConstruct(o Region) bool {
	return !r.IsZero() && r.Kind == o.Kind && r.ID == o.ID
}

// IsLoop reports whether the construct kind is a loop.
func (r Region) IsLoop() bool {
	switch r.Kind {
	case ConstructFor, ConstructForEach, ConstructWhile, ConstructDo:
		return true
	}
	return false
}

func (r Region) String() string {
	if r.IsZero() {
		return ""
	}
	return r.Kind.String() + strconv.Itoa(r.ID) + "." + r.Role.String()
}

// ParseBlockName decodes the "<kind><id>.<role>" naming convention.
// Names that do not follow it yield ok=false.
func ParseBlockName(name string) (Region, bool) {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return Region{}, false
	}
	role, ok := roleNames[name[dot+1:]]
	if !ok {
		return Region{}, false
	}
	head := name[:dot]
	split := len(head)
	for split > 0 && head[split-1] >= '0' && head[split-1] <= '9' {
		split--
	}
	if split == 0 || split == len(head) {
		return Region{}, false
	}
	kind, ok := constructNames[head[:split]]
	if !ok {
		return Region{}, false
	}
	id, err := strconv.Atoi(head[split:])
	if err != nil {
		return Region{}, false
	}
	return Region{Kind: kind, ID: id, Role: role}, true
}
