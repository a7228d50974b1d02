// Package flatten turns nested occupation payloads into single-level rows
// keyed by separator-joined paths, and back.
package flatten

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind tags the three shapes a payload node can take.
type Kind int

const (
	Scalar Kind = iota
	Mapping
	Sequence
)

// ErrInvalidJSON is returned by Parse when the payload is not valid JSON.
var ErrInvalidJSON = errors.New("invalid json payload")

// Field is one key/value pair of a Mapping, kept in document order.
type Field struct {
	Key   string
	Value *Node
}

// Node is a tagged union over {Scalar, Mapping, Sequence}.
// Scalar values are string, int64, float64, bool or nil.
type Node struct {
	Kind   Kind
	Value  any
	Fields []Field
	Items  []*Node
}

// NewScalar wraps a leaf value.
func NewScalar(v any) *Node { return &Node{Kind: Scalar, Value: v} }

// NewMapping builds a mapping node from ordered fields.
func NewMapping(fields ...Field) *Node { return &Node{Kind: Mapping, Fields: fields} }

// NewSequence builds a sequence node.
func NewSequence(items ...*Node) *Node { return &Node{Kind: Sequence, Items: items} }

// Parse decodes raw JSON into a Node tree, preserving object key order.
func Parse(raw []byte) (*Node, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return fromResult(gjson.ParseBytes(raw)), nil
}

func fromResult(r gjson.Result) *Node {
	switch {
	case r.IsObject():
		n := &Node{Kind: Mapping}
		r.ForEach(func(k, v gjson.Result) bool {
			n.Fields = append(n.Fields, Field{Key: k.String(), Value: fromResult(v)})
			return true
		})
		return n
	case r.IsArray():
		n := &Node{Kind: Sequence}
		r.ForEach(func(_, v gjson.Result) bool {
			n.Items = append(n.Items, fromResult(v))
			return true
		})
		return n
	}
	return NewScalar(scalarValue(r))
}

func scalarValue(r gjson.Result) any {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
			return i
		}
		return r.Num
	}
	return nil
}

// Get returns the value stored under key in a mapping, or nil.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != Mapping {
		return nil
	}
	for _, f := range n.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// GetFold is Get with an exact-match preference, falling back to a
// case-insensitive key comparison.
func (n *Node) GetFold(key string) *Node {
	if v := n.Get(key); v != nil {
		return v
	}
	if n == nil || n.Kind != Mapping {
		return nil
	}
	for _, f := range n.Fields {
		if strings.EqualFold(f.Key, key) {
			return f.Value
		}
	}
	return nil
}

// Text renders a scalar as a string. Containers and null yield "".
func (n *Node) Text() string {
	if n == nil || n.Kind != Scalar || n.Value == nil {
		return ""
	}
	return ScalarText(n.Value)
}

// ScalarText formats a leaf value the way it reads in a spreadsheet cell.
func ScalarText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// MarshalJSON writes mappings with their original key order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) writeJSON(buf *bytes.Buffer) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	switch n.Kind {
	case Mapping:
		buf.WriteByte('{')
		for i, f := range n.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, _ := json.Marshal(f.Key)
			buf.Write(k)
			buf.WriteByte(':')
			if err := f.Value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case Sequence:
		buf.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		b, err := json.Marshal(n.Value)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}
