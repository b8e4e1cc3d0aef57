package lower

import (
	"restruct/internal/extern"
)

const (
	DefaultMaxNesting     = 1000
	DefaultMaxDiagnostics = 256
)

// Options configures the lowering of one function.
type Options struct {
	// Resolver renders calls and unit-qualified globals that are not
	// defined by the module. Nil resolves nothing.
	Resolver extern.Resolver
	// Types renders declaration types. Nil uses IR spellings.
	Types extern.TypeRenderer
	// ForeignPlatforms lists the platforms whose inline code is kept.
	// Nil keeps every platform.
	ForeignPlatforms []string
	// MaxNesting bounds the depth of nested regions.
	MaxNesting int
	// MaxDiagnostics bounds the soft diagnostics kept per function.
	MaxDiagnostics int
}

func (o Options) withDefaults() Options {
	if o.Resolver == nil {
		o.Resolver = extern.None
	}
	if o.Types == nil {
		o.Types = extern.NewTypeTable(nil)
	}
	if o.MaxNesting <= 0 {
		o.MaxNesting = DefaultMaxNesting
	}
	if o.MaxDiagnostics <= 0 {
		o.MaxDiagnostics = DefaultMaxDiagnostics
	}
	return o
}

func (o Options) foreignAllowed(platform string) bool {
	if o.ForeignPlatforms == nil {
		return true
	}
	for _, p := range o.ForeignPlatforms {
		if p == platform {
			return true
		}
	}
	return false
}
