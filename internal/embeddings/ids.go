// Package embeddings renames the entries of an embedding container to the
// protein identifiers stored in their metadata.
//
// The embedder keys its datasets by content hash and keeps the original
// identifier in an "original_id" attribute. That attribute arrives as plain
// text, as encoded bytes, or wrapped in a one-element sequence of either.
// DecodeOriginalID turns each shape into a tagged value, and Normalize is the
// single step that produces the final name.
package embeddings

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind tags the shape an identifier attribute was stored in.
type Kind int

const (
	Text Kind = iota + 1
	EncodedText
	Sequence
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case EncodedText:
		return "encoded-text"
	case Sequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// bytesKey marks a bytes value in the bridge's JSON output.
const bytesKey = "$bytes"

// OriginalID is a decoded identifier attribute.
type OriginalID struct {
	Kind Kind
	// Value is the decoded text for Text and EncodedText.
	Value string
	// Inner is the wrapped element for Sequence.
	Inner *OriginalID
}

// ErrEmptySequence is returned for a sequence attribute with no elements.
var ErrEmptySequence = errors.New("embeddings: identifier sequence is empty")

// DecodeOriginalID decodes an attribute value as produced by the bridge:
// a JSON string, an object {"$bytes": base64}, or an array whose first
// element is either. Numbers and booleans are accepted as text.
func DecodeOriginalID(v any) (OriginalID, error) {
	return decode(v, true)
}

func decode(v any, allowSequence bool) (OriginalID, error) {
	switch t := v.(type) {
	case string:
		return OriginalID{Kind: Text, Value: t}, nil
	case map[string]any:
		enc, ok := t[bytesKey].(string)
		if !ok || len(t) != 1 {
			return OriginalID{}, fmt.Errorf("embeddings: unsupported identifier object %v", t)
		}
		raw, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return OriginalID{}, fmt.Errorf("embeddings: decode identifier bytes: %w", err)
		}
		if !utf8.Valid(raw) {
			return OriginalID{}, fmt.Errorf("embeddings: identifier bytes are not valid UTF-8")
		}
		return OriginalID{Kind: EncodedText, Value: string(raw)}, nil
	case []any:
		if !allowSequence {
			return OriginalID{}, fmt.Errorf("embeddings: nested identifier sequence")
		}
		if len(t) == 0 {
			return OriginalID{}, ErrEmptySequence
		}
		inner, err := decode(t[0], false)
		if err != nil {
			return OriginalID{}, err
		}
		return OriginalID{Kind: Sequence, Inner: &inner}, nil
	case float64:
		return OriginalID{Kind: Text, Value: strconv.FormatFloat(t, 'f', -1, 64)}, nil
	case bool:
		return OriginalID{Kind: Text, Value: strconv.FormatBool(t)}, nil
	case nil:
		return OriginalID{}, fmt.Errorf("embeddings: identifier is null")
	default:
		return OriginalID{}, fmt.Errorf("embeddings: unsupported identifier type %T", v)
	}
}

// Normalize returns the trimmed identifier text.
func (id OriginalID) Normalize() string {
	if id.Kind == Sequence && id.Inner != nil {
		return id.Inner.Normalize()
	}
	return strings.TrimSpace(id.Value)
}

// Entry is one dataset of the container as listed by the bridge.
type Entry struct {
	Name string `json:"name"`
	// OriginalID is nil when the attribute is absent.
	OriginalID any  `json:"original_id,omitempty"`
	HasID      bool `json:"has_original_id"`
}

// Rename maps a dataset to its new name.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PlanRenames computes the new name of every entry. Entries without an
// identifier keep their name. Two entries resolving to the same name is an
// error because the output container cannot hold both.
func PlanRenames(entries []Entry) ([]Rename, error) {
	out := make([]Rename, 0, len(entries))
	taken := make(map[string]string, len(entries))
	for _, e := range entries {
		to := e.Name
		if e.HasID {
			id, err := DecodeOriginalID(e.OriginalID)
			if err != nil {
				return nil, fmt.Errorf("entry %s: %w", e.Name, err)
			}
			to = id.Normalize()
			if to == "" {
				return nil, fmt.Errorf("entry %s: identifier is blank", e.Name)
			}
		}
		if prev, dup := taken[to]; dup {
			return nil, fmt.Errorf("entries %s and %s both resolve to %q", prev, e.Name, to)
		}
		taken[to] = e.Name
		out = append(out, Rename{From: e.Name, To: to})
	}
	return out, nil
}
