// internal/pluginconfig/codec.go
//
// Config value serialization.
//
// Context
// -------
// Plugins hand the store arbitrary values; the store keeps them as text.
// The JSON codec matches what existing rows look like: two-space indented
// JSON with null-valued object fields dropped.  Dropping nulls is a one-way
// normalization, so `{"a":1,"b":null}` reads back as `{"a":1}`.  Nulls
// inside arrays are kept.
//
// Notes
// -----
//   - Numbers pass through json.Number so large integers survive intact.
//   - HTML characters are not escaped.
//   - Oxford commas, two spaces after periods.
package pluginconfig

import (
	"bytes"
	"encoding/json"
)

// Codec converts values to and from their stored form.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default Codec.
type JSONCodec struct{}

// Marshal encodes v, drops null object fields, and indents the result.  A
// value that encodes to JSON null yields the literal `null`.
func (JSONCodec) Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dropNulls(tree)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Unmarshal decodes data into v.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func dropNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if val == nil {
				delete(t, k)
				continue
			}
			t[k] = dropNulls(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = dropNulls(val)
		}
		return t
	default:
		return v
	}
}

// isNull reports whether encoded is the JSON literal null.
func isNull(encoded []byte) bool {
	return bytes.Equal(bytes.TrimSpace(encoded), []byte("null"))
}
