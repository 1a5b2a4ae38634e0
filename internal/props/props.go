// Package props implements the ordered, typed parameter map used to configure
// clustering runs.
//
// A Props value is treated as immutable once it has been handed to an
// algorithm: Merge and Copy always return fresh maps, so a base configuration
// can be shared by many candidate runs without aliasing.
package props

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Props is an ordered map of hyperparameter names to values. Supported value
// types are int, float64, string and bool. Keys keep their insertion order;
// overwriting a key keeps its original position.
type Props struct {
	keys   []string
	values map[string]any
}

// New returns an empty Props.
func New() *Props {
	return &Props{values: make(map[string]any)}
}

// Of builds a Props from alternating key/value arguments. It panics on an odd
// argument count or a non-string key, so it is meant for literals.
func Of(kv ...any) *Props {
	if len(kv)%2 != 0 {
		panic("props: Of needs key/value pairs")
	}
	p := New()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("props: key %v is not a string", kv[i]))
		}
		p.Put(key, kv[i+1])
	}
	return p
}

// Put stores value under key and returns p for chaining. Integer and float
// types of any width are normalised to int and float64.
func (p *Props) Put(key string, value any) *Props {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = normalize(value)
	return p
}

func normalize(v any) any {
	switch x := v.(type) {
	case int8:
		return int(x)
	case int16:
		return int(x)
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint8:
		return int(x)
	case uint16:
		return int(x)
	case uint32:
		return int(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

// Get returns the raw value stored under key.
func (p *Props) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is set.
func (p *Props) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Remove deletes key, preserving the order of the remaining keys.
func (p *Props) Remove(key string) {
	if !p.Has(key) {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// GetString returns the value under key formatted as a string, or def when
// the key is missing.
func (p *Props) GetString(key, def string) string {
	v, ok := p.Get(key)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return formatValue(v)
}

// GetInt returns the value under key as an int. Floats are truncated and
// numeric strings are parsed; anything else yields def.
func (p *Props) GetInt(key string, def int) int {
	v, ok := p.Get(key)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case int:
		return x
	case float64:
		return int(x)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n
		}
	}
	return def
}

// GetFloat returns the value under key as a float64, or def.
func (p *Props) GetFloat(key string, def float64) float64 {
	v, ok := p.Get(key)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
	}
	return def
}

// GetBool returns the value under key as a bool, or def.
func (p *Props) GetBool(key string, def bool) bool {
	v, ok := p.Get(key)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return b
		}
	}
	return def
}

// Keys returns the keys in insertion order.
func (p *Props) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of keys.
func (p *Props) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Copy returns an independent copy of p. A nil receiver yields an empty map.
func (p *Props) Copy() *Props {
	out := New()
	if p == nil {
		return out
	}
	out.keys = make([]string, len(p.keys))
	copy(out.keys, p.keys)
	for k, v := range p.values {
		out.values[k] = v
	}
	return out
}

// Merge returns a new Props holding every key of p overlaid with every key of
// override. Values from override win on collision. Neither input is modified.
func (p *Props) Merge(override *Props) *Props {
	out := p.Copy()
	if override == nil {
		return out
	}
	for _, k := range override.keys {
		out.Put(k, override.values[k])
	}
	return out
}

// Equal reports whether p and other hold the same keys and values,
// ignoring order.
func (p *Props) Equal(other *Props) bool {
	if p.Len() != other.Len() {
		return false
	}
	for _, k := range p.Keys() {
		a, _ := p.Get(k)
		b, ok := other.Get(k)
		if !ok || a != b {
			return false
		}
	}
	return true
}

// String renders p as "key=value, ..." in key order, for log lines.
func (p *Props) String() string {
	if p.Len() == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(formatValue(p.values[k]))
	}
	b.WriteByte('}')
	return b.String()
}

// ToJSON renders p as a compact JSON object with keys in insertion order.
func (p *Props) ToJSON() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range p.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(k)
		b.Write(key)
		b.WriteByte(':')
		val, err := json.Marshal(p.values[k])
		if err != nil {
			val, _ = json.Marshal(formatValue(p.values[k]))
		}
		b.Write(val)
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON implements json.Marshaler preserving key order.
func (p *Props) MarshalJSON() ([]byte, error) {
	return []byte(p.ToJSON()), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Props) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
