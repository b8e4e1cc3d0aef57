package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestParsedDefault(t *testing.T) {
	v, err := Parsed()
	if err != nil {
		t.Fatalf("default version must be semver: %v", err)
	}
	if v.Prerelease() != "dev" {
		t.Fatalf("prerelease = %q, want dev", v.Prerelease())
	}
}

func TestColoredPlain(t *testing.T) {
	orig, noColor := Version, color.NoColor
	defer func() { Version, color.NoColor = orig, noColor }()
	color.NoColor = true

	tests := []struct{ in, want string }{
		{"1.2.3", "1.2.3"},
		{"v2.0.0-rc.1+build.7", "2.0.0-rc.1+build.7"},
		{"not-a-version", "not-a-version"},
	}
	for _, tt := range tests {
		Version = tt.in
		if got := Colored(); got != tt.want {
			t.Errorf("Colored(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOverride(t *testing.T) {
	orig := GitCommit
	defer func() { GitCommit = orig }()
	GitCommit = "abc123"
	if !strings.HasPrefix(GitCommit, "abc") {
		t.Fatalf("override failed")
	}
}
