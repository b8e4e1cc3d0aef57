package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
	"github.com/Masterminds/semver/v3"
	"github.com/vmihailenco/msgpack/v5"
)

// FormatVersion is the document format written by Encode.
const FormatVersion = "1.1.0"

// supportedFormats is the range of document versions Decode accepts.
const supportedFormats = "^1.0"

var ErrUnsupportedFormat = errors.New("unsupported IR document format")

// Encoding selects the on-disk representation of an IR document.
type Encoding uint8

const (
	EncodingMsgpack Encoding = iota
	EncodingJSON
)

// EncodingForPath picks an encoding from a file extension.
func EncodingForPath(path string) Encoding {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return EncodingJSON
	default:
		return EncodingMsgpack
	}
}

// Document is the serialized form of a module.
type Document struct {
	Format string  `json:"format"`
	Module *Module `json:"module"`
}

// Encode writes m as a versioned document.
func Encode(w io.Writer, m *Module, enc Encoding) error {
	doc := Document{Format: FormatVersion, Module: m}
	switch enc {
	case EncodingJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(&doc)
	default:
		e := msgpack.NewEncoder(w)
		e.SetCustomStructTag("json")
		return e.Encode(&doc)
	}
}

// Decode reads a versioned document and normalizes every function.
func Decode(r io.Reader, enc Encoding) (*Module, error) {
	var doc Document
	switch enc {
	case EncodingJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		d := msgpack.NewDecoder(r)
		d.SetCustomStructTag("json")
		if err := d.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode msgpack: %w", err)
		}
	}
	if err := checkFormat(doc.Format); err != nil {
		return nil, err
	}
	if doc.Module == nil {
		return nil, fmt.Errorf("%w: document has no module", ErrUnsupportedFormat)
	}
	for i, f := range doc.Module.Funcs {
		if f == nil {
			return nil, fmt.Errorf("function #%d is null", i)
		}
		id, err := safeFuncID(i)
		if err != nil {
			return nil, err
		}
		f.ID = id
		f.Normalize()
	}
	return doc.Module, nil
}

// DecodeFile reads a document, choosing the encoding from the extension.
func DecodeFile(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Decode(bytes.NewReader(data), EncodingForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func checkFormat(format string) error {
	if format == "" {
		return fmt.Errorf("%w: missing format version", ErrUnsupportedFormat)
	}
	v, err := semver.NewVersion(format)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsupportedFormat, format, err)
	}
	c, err := semver.NewConstraint(supportedFormats)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrUnsupportedFormat, v, supportedFormats)
	}
	return nil
}

func safeFuncID(i int) (FuncID, error) {
	id, err := safecast.Conv[int32](i)
	if err != nil {
		return NoFuncID, fmt.Errorf("function index %d: %w", i, err)
	}
	return FuncID(id), nil
}
