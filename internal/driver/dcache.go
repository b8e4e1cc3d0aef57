package driver

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"restruct/internal/diag"
	"restruct/internal/lower"
)

// Current schema version - increment when Payload format changes
const cacheSchemaVersion uint16 = 2

// Cache stores lowered functions on disk by FuncKey.
// Thread-safe for concurrent access.
type Cache struct {
	mu     sync.RWMutex
	dir    string
	group  singleflight.Group
	failed atomic.Int64
}

// Payload is the cached form of a lowered function. The statement tree is
// kept in its dumped form.
type Payload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Func    string
	Text    string
	Decls   []lower.Decl
	Imports []string
	Diags   []diag.Diagnostic
	Dropped int
	Visited int
}

// OpenCache opens the cache in dir, or in the user cache directory when dir
// is empty.
func OpenCache(dir string) (*Cache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "restruct")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key Digest) string {
	hexKey := key.String()
	return filepath.Join(c.dir, "funcs", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the cache.
func (c *Cache) Put(key Digest, payload *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(f.Name())
		}
	}()

	payload.Schema = cacheSchemaVersion
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// atomic replace
	if err := os.Rename(f.Name(), p); err != nil {
		return err
	}
	renamed = true
	return nil
}

// Get reads a payload. Entries written by another schema are misses.
func (c *Cache) Get(key Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return out.Schema == cacheSchemaVersion, nil
}

// Do returns the cached payload for key, computing and storing it on a
// miss. Concurrent calls for one key share a single computation; only the
// caller that ran it reports a miss. Write failures do not fail the call;
// they are counted by WriteFailures.
func (c *Cache) Do(key Digest, compute func() (*Payload, error)) (*Payload, bool, error) {
	var cached Payload
	if ok, err := c.Get(key, &cached); err == nil && ok {
		return &cached, true, nil
	}
	ran := false
	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		ran = true
		p, err := compute()
		if err != nil {
			return nil, err
		}
		if err := c.Put(key, p); err != nil {
			c.failed.Add(1)
		}
		return p, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*Payload), !ran, nil
}

func (c *Cache) WriteFailures() int64 {
	if c == nil {
		return 0
	}
	return c.failed.Load()
}

// DropAll invalidates the cache, useful after format changes.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
