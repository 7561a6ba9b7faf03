package tree

import (
	"bytes"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

// TagKind enumerates the value kinds a tag can hold
type TagKind uint8

const (
	TagInvalid TagKind = iota
	TagString
	TagInt
	TagFloat
	TagBool
	TagBytes
)

func (k TagKind) String() string {
	switch k {
	case TagString:
		return "string"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagBool:
		return "bool"
	case TagBytes:
		return "bytes"
	default:
		return "invalid"
	}
}

// TagValue is a closed sum of the value kinds listed in [TagKind].
// The zero value is invalid.
type TagValue struct {
	kind TagKind
	s    string
	i    int64
	f    float64
	b    bool
	raw  []byte
}

func StringTag(v string) TagValue { return TagValue{kind: TagString, s: v} }
func IntTag(v int64) TagValue { return TagValue{kind: TagInt, i: v} }
func FloatTag(v float64) TagValue { return TagValue{kind: TagFloat, f: v} }
func BoolTag(v bool) TagValue { return TagValue{kind: TagBool, b: v} }
func BytesTag(v []byte) TagValue { return TagValue{kind: TagBytes, raw: bytes.Clone(v)} }
func (v TagValue) Kind() TagKind { return v.kind }
func (v TagValue) IsValid() bool { return v.kind != TagInvalid }
func (v TagValue) Str() string { return v.s }
func (v TagValue) Int() int64 { return v.i }
func (v TagValue) Float() float64 { return v.f }
func (v TagValue) Bool() bool { return v.b }
func (v TagValue) Bytes() []byte { return bytes.Clone(v.raw) }

// Equal reports whether both values have the same kind and content
func (v TagValue) Equal(o TagValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case TagString:
		return v.s == o.s
	case TagInt:
		return v.i == o.i
	case TagFloat:
		return v.f == o.f
	case TagBool:
		return v.b == o.b
	case TagBytes:
		return bytes.Equal(v.raw, o.raw)
	}
	return true
}

// Any returns the value as a plain Go value (string, int64, float64, bool, []byte)
func (v TagValue) Any() any {
	switch v.kind {
	case TagString:
		return v.s
	case TagInt:
		return v.i
	case TagFloat:
		return v.f
	case TagBool:
		return v.b
	case TagBytes:
		return v.Bytes()
	}
	return nil
}

func (v TagValue) String() string {
	switch v.kind {
	case TagBytes:
		return fmt.Sprintf("%x", v.raw)
	case TagInvalid:
		return "<invalid>"
	}
	return fmt.Sprint(v.Any())
}

// TagFromAny converts a decoded JSON/YAML scalar into a TagValue.
// Whole float64 values (as produced by encoding/json) become ints.
func TagFromAny(v any) (TagValue, error) {
	switch t := v.(type) {
	case TagValue:
		return t, nil
	case string:
		return StringTag(t), nil
	case bool:
		return BoolTag(t), nil
	case int:
		return IntTag(int64(t)), nil
	case int32:
		return IntTag(int64(t)), nil
	case int64:
		return IntTag(t), nil
	case uint32:
		return IntTag(int64(t)), nil
	case float32:
		return TagFromAny(float64(t))
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return IntTag(int64(t)), nil
		}
		return FloatTag(t), nil
	case []byte:
		return BytesTag(t), nil
	default:
		return TagValue{}, fmt.Errorf("%w: unsupported tag value type %T", ErrInvalidArgument, v)
	}
}

// IsWildcardKey reports whether key is delimited by underscores ("_scope_").
// Wildcard tags are pushed into every subtree attached below their node.
func IsWildcardKey(key string) bool {
	return len(key) >= 2 && strings.HasPrefix(key, "_") && strings.HasSuffix(key, "_")
}

// Tags maps string keys to tag values
type Tags struct {
	m map[string]TagValue
}

func NewTags() *Tags {
	return &Tags{m: make(map[string]TagValue)}
}

// TagsFromMap converts decoded values into a tag store
func TagsFromMap(src map[string]any) (*Tags, error) {
	t := NewTags()
	for k, raw := range src {
		v, err := TagFromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", k, err)
		}
		t.m[k] = v
	}
	return t, nil
}

func (t *Tags) Get(key string) (TagValue, bool) {
	v, ok := t.m[key]
	return v, ok
}

func (t *Tags) Has(key string) bool {
	_, ok := t.m[key]
	return ok
}

// Set stores v under key, overwriting any existing value
func (t *Tags) Set(key string, v TagValue) {
	t.m[key] = v
}

// SetIfAbsent stores v only when key is not defined yet.
// Returns whether the value was stored.
func (t *Tags) SetIfAbsent(key string, v TagValue) bool {
	if _, ok := t.m[key]; ok {
		return false
	}
	t.m[key] = v
	return true
}

func (t *Tags) Delete(key string) {
	delete(t.m, key)
}

func (t *Tags) Len() int {
	return len(t.m)
}

// Keys returns the keys in sorted order
func (t *Tags) Keys() []string {
	return slices.Sorted(maps.Keys(t.m))
}

// Wildcards returns a copy holding only the wildcard entries
func (t *Tags) Wildcards() *Tags {
	w := NewTags()
	for k, v := range t.m {
		if IsWildcardKey(k) {
			w.m[k] = v
		}
	}
	return w
}

func (t *Tags) Clone() *Tags {
	return &Tags{m: maps.Clone(t.m)}
}

// Map returns the tags as plain Go values
func (t *Tags) Map() map[string]any {
	out := make(map[string]any, len(t.m))
	for k, v := range t.m {
		out[k] = v.Any()
	}
	return out
}

// merge copies every entry of src absent from t; first write wins
func (t *Tags) merge(src *Tags) {
	for k, v := range src.m {
		if _, ok := t.m[k]; !ok {
			t.m[k] = v
		}
	}
}
