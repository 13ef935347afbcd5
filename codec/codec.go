// Package codec encodes record snapshots as YAML or JSON documents.
//
// A snapshot carries both the current state and the baseline of a record, so
// restoring it preserves the dirty state. Snapshots are plain values; this
// package does not store them anywhere.
package codec

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comalice/recordx"
)

var (
	ErrDecode = errors.New("codec: decode failed")
	ErrFormat = errors.New("codec: unknown format")
)

// Format selects the document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" and "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("format %q: %w", s, ErrFormat)
	}
}

// Snapshot is the serializable state of one record.
type Snapshot struct {
	ID       int64          `json:"id" yaml:"id"`
	Kind     string         `json:"kind,omitempty" yaml:"kind,omitempty"`
	Version  string         `json:"version,omitempty" yaml:"version,omitempty"`
	Current  map[string]any `json:"current" yaml:"current"`
	Baseline map[string]any `json:"baseline" yaml:"baseline"`
}

// Capture takes a snapshot of r. Version is the fingerprint of the current
// state.
func Capture(r *recordx.Record) Snapshot {
	current := r.All()
	return Snapshot{
		ID:       r.ID(),
		Kind:     r.Kind(),
		Version:  Fingerprint(current),
		Current:  current,
		Baseline: r.Baseline(),
	}
}

// Restore rebuilds a record from s, keeping its identity and kind. opts are
// applied last, so a caller-supplied WithIdentity wins.
func Restore(s Snapshot, opts ...recordx.Option) *recordx.Record {
	all := append([]recordx.Option{recordx.WithIdentity(s.ID), recordx.WithKind(s.Kind)}, opts...)
	return recordx.Restore(s.Current, s.Baseline, all...)
}

// Validate checks that Version, when set, matches the current state.
func (s Snapshot) Validate() error {
	if s.Version == "" {
		return nil
	}
	if got := Fingerprint(s.Current); got != s.Version {
		return fmt.Errorf("snapshot %d: version %s does not match content %s: %w", s.ID, s.Version, got, ErrDecode)
	}
	return nil
}

// Fingerprint returns a short content hash of d. Map keys are sorted by the
// JSON encoder, so equal maps hash equally.
func Fingerprint(d map[string]any) string {
	if d == nil {
		d = map[string]any{}
	}
	data, err := json.Marshal(d)
	if err != nil {
		// Values without a JSON form (channels, funcs) fall back to fmt.
		data = []byte(fmt.Sprintf("%v", d))
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}

// Marshal encodes s in format f.
func Marshal(s Snapshot, f Format) ([]byte, error) {
	return encode(s, f)
}

// Unmarshal decodes a snapshot and validates its version.
func Unmarshal(b []byte, f Format) (Snapshot, error) {
	var s Snapshot
	if err := decode(b, f, &s); err != nil {
		return Snapshot{}, err
	}
	if s.Current == nil {
		s.Current = map[string]any{}
	}
	if s.Baseline == nil {
		s.Baseline = map[string]any{}
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// MarshalData encodes a plain mapping, such as All or Diff output.
func MarshalData(d map[string]any, f Format) ([]byte, error) {
	if d == nil {
		d = map[string]any{}
	}
	return encode(d, f)
}

// UnmarshalData decodes a plain mapping. An empty document yields an empty
// mapping.
func UnmarshalData(b []byte, f Format) (recordx.Data, error) {
	d := recordx.Data{}
	if err := decode(b, f, &d); err != nil {
		return nil, err
	}
	if d == nil {
		d = recordx.Data{}
	}
	return d, nil
}

func encode(v any, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("yaml marshal: %w", err)
		}
		return data, nil
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("json marshal: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("encode %q: %w", f, ErrFormat)
	}
}

func decode(b []byte, f Format, v any) error {
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(b, v); err != nil {
			return fmt.Errorf("yaml unmarshal: %v: %w", err, ErrDecode)
		}
	case FormatJSON:
		if len(strings.TrimSpace(string(b))) == 0 {
			return nil
		}
		if err := json.Unmarshal(b, v); err != nil {
			return fmt.Errorf("json unmarshal: %v: %w", err, ErrDecode)
		}
	default:
		return fmt.Errorf("decode %q: %w", f, ErrFormat)
	}
	return nil
}
