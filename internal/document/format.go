package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format constants.
const (
	FormatVersion = 1 // v1: operator/channel/layer/network documents

	KeyFormatVersion = "format_version"
	KeyKind          = "kind"
	KeyCreatedAt     = "created_at"
)

// Format selects the textual encoding of a document.
type Format int

const (
	// JSON encodes documents with encoding/json.
	JSON Format = iota
	// YAML encodes documents with gopkg.in/yaml.v3.
	YAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatFromPath picks the format from a file extension (.json, .yaml, .yml).
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Envelope wraps body with the versioned header fields. body is modified in
// place and returned.
func Envelope(kind string, body Node) Node {
	body[KeyFormatVersion] = FormatVersion
	body[KeyKind] = kind
	body[KeyCreatedAt] = time.Now().UTC().Format(time.RFC3339)
	return body
}

// CheckEnvelope verifies the header fields written by Envelope.
func CheckEnvelope(n Node, kind string) error {
	version, err := n.Int(KeyFormatVersion)
	if err != nil {
		return err
	}
	if version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}
	got, err := n.String(KeyKind)
	if err != nil {
		return err
	}
	if got != kind {
		return fmt.Errorf("%w: got %q, expected %q", ErrKindMismatch, got, kind)
	}
	return nil
}

// Marshal encodes n in the given format.
func Marshal(n Node, f Format) ([]byte, error) {
	switch f {
	case JSON:
		data, err := json.MarshalIndent(n, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal json document")
		}
		return data, nil
	case YAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any(n)); err != nil {
			return nil, errors.Wrap(err, "failed to marshal yaml document")
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(err, "failed to flush yaml document")
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
}

// Unmarshal decodes a document in the given format. The top level must be an
// object.
func Unmarshal(data []byte, f Format) (Node, error) {
	var m map[string]any
	switch f {
	case JSON:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(err, "failed to parse json document")
		}
	case YAML:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(err, "failed to parse yaml document")
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
	if m == nil {
		return nil, errors.New("document is empty")
	}
	return Node(m), nil
}

// WriteFile encodes n and writes it to path, choosing the format from the
// file extension.
func WriteFile(path string, n Node) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Marshal(n, f)
	if err != nil {
		return err
	}
	//nolint:gosec // G306: documents hold no secrets
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// ReadFile reads and decodes the document at path, choosing the format from
// the file extension.
func ReadFile(path string) (Node, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	n, err := Unmarshal(data, f)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return n, nil
}
