package reference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind names a reference collection.
type Kind string

const (
	KindCase   Kind = "case"
	KindScript Kind = "script"
)

// Attributes maps attribute names to scalar or list values.
type Attributes map[string]interface{}

// Record is a stored case or sales script. Records are never mutated after
// they enter an Index.
type Record struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Title      string          `json:"title"`
	Date       string          `json:"date,omitempty"`
	Attributes Attributes      `json:"attributes"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Summary is the listing view of a record.
type Summary struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Title string `json:"title"`
	Date  string `json:"date,omitempty"`
}

// Match is a scored search hit.
type Match struct {
	Record Record `json:"record"`
	Score  int    `json:"score"`
}

func (r Record) summary() Summary {
	return Summary{ID: r.ID, Kind: r.Kind, Title: r.Title, Date: r.Date}
}

func (r Record) clone() Record {
	out := r
	out.Attributes = cloneAttributes(r.Attributes)
	if r.Payload != nil {
		out.Payload = append(json.RawMessage(nil), r.Payload...)
	}
	return out
}

func cloneAttributes(in Attributes) Attributes {
	out := make(Attributes, len(in))
	for k, v := range in {
		if list, ok := v.([]string); ok {
			out[k] = append([]string(nil), list...)
			continue
		}
		if list, ok := v.([]interface{}); ok {
			out[k] = append([]interface{}(nil), list...)
			continue
		}
		out[k] = v
	}
	return out
}

// scalarKey normalizes a scalar so 2, 2.0 and "2" compare equal. ok is false
// for empty or non-scalar values.
func scalarKey(v interface{}) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		x = strings.TrimSpace(x)
		return x, x != ""
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

// listKeys flattens a list attribute into normalized keys. A lone scalar is
// treated as a one-element list.
func listKeys(v interface{}) []string {
	switch x := v.(type) {
	case []string:
		out := make([]string, 0, len(x))
		for _, s := range x {
			if k, ok := scalarKey(s); ok {
				out = append(out, k)
			}
		}
		return out
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, s := range x {
			if k, ok := scalarKey(s); ok {
				out = append(out, k)
			}
		}
		return out
	}
	if k, ok := scalarKey(v); ok {
		return []string{k}
	}
	return nil
}

// ParseQuery decodes a JSON attribute query. Anything that is not a JSON
// object yields an empty query instead of an error: a malformed query simply
// matches nothing, and search falls back to its mode's default.
func ParseQuery(raw []byte) Attributes {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var q map[string]interface{}
	if err := dec.Decode(&q); err != nil || q == nil {
		return Attributes{}
	}
	return Attributes(q)
}

func (k Kind) idPrefix() string {
	return fmt.Sprintf("%s_", k)
}
