package props

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrSyntax is returned when a configuration string cannot be parsed.
var ErrSyntax = errors.New("props: invalid configuration syntax")

// Parse reads a configuration from either a JSON object
// (`{"eps": 0.5, "min-pts": 4}`) or the relaxed catalog form
// (`{linkage=ward, k:3}` or `linkage=ward,k=3`). Key order is preserved.
// An empty string yields an empty Props.
func Parse(s string) (*Props, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "{}" {
		return New(), nil
	}
	if gjson.Valid(s) {
		return parseJSON(s)
	}
	return parseRelaxed(s)
}

// MustParse is Parse for literals; it panics on error.
func MustParse(s string) *Props {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseJSON(s string) (*Props, error) {
	doc := gjson.Parse(s)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: expected an object, got %s", ErrSyntax, doc.Type)
	}
	p := New()
	var err error
	doc.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.Number:
			if isIntegral(value.Raw) {
				p.Put(key.String(), int(value.Int()))
			} else {
				p.Put(key.String(), value.Float())
			}
		case gjson.True, gjson.False:
			p.Put(key.String(), value.Bool())
		case gjson.String:
			p.Put(key.String(), value.String())
		case gjson.Null:
			// skipped
		default:
			err = fmt.Errorf("%w: nested value for %q", ErrSyntax, key.String())
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func isIntegral(raw string) bool {
	return !strings.ContainsAny(raw, ".eE")
}

func parseRelaxed(s string) (*Props, error) {
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	p := New()
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.IndexAny(pair, "=:")
		if idx <= 0 {
			return nil, fmt.Errorf("%w: %q is not key=value", ErrSyntax, pair)
		}
		key := strings.Trim(strings.TrimSpace(pair[:idx]), `"'`)
		raw := strings.Trim(strings.TrimSpace(pair[idx+1:]), `"'`)
		p.Put(key, inferValue(raw))
	}
	return p, nil
}

func inferValue(raw string) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil && !isDigitBool(raw) {
		return b
	}
	return raw
}

// isDigitBool filters "1"/"0"/"t"/"f" which strconv.ParseBool accepts but
// which read as numbers or names in a catalog.
func isDigitBool(raw string) bool {
	switch raw {
	case "1", "0", "t", "f", "T", "F":
		return true
	}
	return false
}
