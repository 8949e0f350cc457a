// Package canonical implements the deterministic serialization the
// signature scheme is computed over, plus the data-cleanup helpers the
// envelope layer uses before encoding.
package canonical

import (
	"encoding/json"
	"sort"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Serialize flattens nested data into the byte string that gets signed.
// Mappings are visited in a fixed order: sequence indexes ascending
// numerically, then named keys ascending lexicographically, so the result
// is independent of insertion order. Keys that are non-negative integers
// mark sequence usage and are not emitted, only their values; other keys
// are emitted verbatim before their recursively serialized value. Scalars render as
// their wire text: nil is empty, booleans are "1"/"" and numbers keep the
// representation they arrived with.
func Serialize(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "1"
		}
		return ""
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		var out string
		for _, el := range t {
			out += Serialize(el)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			ni, iNum := sequenceIndex(keys[i])
			nj, jNum := sequenceIndex(keys[j])
			switch {
			case iNum && jNum:
				return ni < nj
			case iNum != jNum:
				// Sequence indexes sort as one group ahead of named keys;
				// comparing an index against a name lexicographically would
				// not be transitive.
				return iNum
			default:
				return keys[i] < keys[j]
			}
		})

		var out string
		for _, k := range keys {
			if _, ok := sequenceIndex(k); ok {
				out += Serialize(t[k])
			} else {
				out += k + Serialize(t[k])
			}
		}
		return out
	default:
		// Fallback for exotic scalar types assigned by callers.
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		s := string(b)
		if len(s) >= 2 && s[0] == '"' {
			s = s[1 : len(s)-1]
		}
		return s
	}
}

// sequenceIndex reports whether key is a non-negative integer index.
func sequenceIndex(key string) (int64, bool) {
	if key == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(key, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Vacuum recursively strips mapping entries whose value is nil or collapses
// to nothing, returning nil for an empty result so the caller can omit the
// key entirely instead of emitting an empty object.
func Vacuum(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if nv := Vacuum(val); nv != nil {
				out[k] = nv
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, el := range t {
			if nv := Vacuum(el); nv != nil {
				out = append(out, nv)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return v
	}
}

// EnsureUTF8 normalizes a string that may have arrived in a legacy
// single-byte encoding. Valid UTF-8 passes through untouched; anything
// else is treated as ISO-8859-1/-15 and transcoded, so byte-level
// serialization and JSON encoding never see mixed encodings.
func EnsureUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	// ISO-8859-15 differs from -1 only in eight codepoints; prefer it when
	// one of those bytes is present, which is how euro-sign input shows up.
	cm := charmap.ISO8859_1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 0xA4, 0xA6, 0xA8, 0xB4, 0xB8, 0xBC, 0xBD, 0xBE:
			cm = charmap.ISO8859_15
		}
	}

	decoded, err := cm.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return decoded
}
