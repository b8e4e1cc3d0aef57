package driver

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"slices"

	"github.com/vmihailenco/msgpack/v5"

	"restruct/internal/ir"
	"restruct/internal/version"
)

// Digest is a SHA-256 content hash.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

func (d Digest) IsZero() bool { return d == Digest{} }

// combineDigest: H(content || dep1 || dep2 ...). deps must be in a
// deterministic order.
func combineDigest(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func hashValue(v any) (Digest, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return Digest{}, err
	}
	return sha256.Sum256(buf.Bytes()), nil
}

// moduleContext is everything outside a function that changes its lowering.
type moduleContext struct {
	Globals []ir.Global
	Funcs   []string
	Salt    string
	Version string
}

func contextDigest(m *ir.Module, salt string) (Digest, error) {
	ctx := moduleContext{Salt: salt, Version: version.Version}
	if m != nil {
		ctx.Globals = m.Globals
		for _, f := range m.Funcs {
			if f != nil {
				ctx.Funcs = append(ctx.Funcs, f.Name)
			}
		}
		slices.Sort(ctx.Funcs)
	}
	return hashValue(&ctx)
}

// FuncKey is the cache key of f lowered inside m. salt stands for the
// lowering options, which are not hashable themselves.
func FuncKey(m *ir.Module, f *ir.Func, salt string) (Digest, error) {
	content, err := hashValue(f)
	if err != nil {
		return Digest{}, err
	}
	ctx, err := contextDigest(m, salt)
	if err != nil {
		return Digest{}, err
	}
	return combineDigest(content, ctx), nil
}
