package flatten

import (
	"strconv"
	"strings"
)

// DefaultSeparator joins path segments.
const DefaultSeparator = "_"

type frame struct {
	path string
	node *Node
}

// Flatten walks n depth-first in document order and emits one entry per
// scalar leaf. A mapping child lives at parent+sep+key, a sequence element
// at parent+sep+index. Empty mappings and sequences emit nothing.
func Flatten(n *Node, sep string) *Row {
	row := NewRow()
	if n == nil {
		return row
	}

	stack := []frame{{node: n}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.node == nil {
			row.Set(f.path, nil)
			continue
		}
		switch f.node.Kind {
		case Mapping:
			// pushed in reverse so the first field pops first
			for i := len(f.node.Fields) - 1; i >= 0; i-- {
				fl := f.node.Fields[i]
				stack = append(stack, frame{path: joinPath(f.path, fl.Key, sep), node: fl.Value})
			}
		case Sequence:
			for i := len(f.node.Items) - 1; i >= 0; i-- {
				stack = append(stack, frame{path: joinPath(f.path, strconv.Itoa(i), sep), node: f.node.Items[i]})
			}
		default:
			row.Set(f.path, f.node.Value)
		}
	}
	return row
}

func joinPath(parent, key, sep string) string {
	if parent == "" {
		return key
	}
	return parent + sep + key
}

// Unflatten rebuilds a mapping from a flat row. Numeric path segments become
// sequence indexes. Keys that themselves contain sep cannot be told apart
// from nesting and come back nested. A container that turns out to hold a
// non-numeric key, or an index larger than the row, comes back as a mapping
// keyed by the index text, so every leaf value is kept.
func Unflatten(row *Row, sep string) *Node {
	root := NewMapping()
	if row == nil {
		return root
	}
	u := &unflattener{maxIndex: row.Len(), holes: make(map[*Node]bool)}
	for _, key := range row.Keys() {
		v, _ := row.Get(key)
		segs := []string{key}
		if sep != "" {
			segs = strings.Split(key, sep)
		}
		u.insert(root, segs, v)
	}
	return root
}

type unflattener struct {
	maxIndex int
	holes    map[*Node]bool // null padding for dropped sequence elements
}

// index parses seg as a sequence index no larger than the row itself.
func (u *unflattener) index(seg string) (int, bool) {
	if !isIndex(seg) {
		return 0, false
	}
	idx, err := strconv.Atoi(seg)
	if err != nil || idx > u.maxIndex {
		return 0, false
	}
	return idx, true
}

func (u *unflattener) insert(cur *Node, segs []string, v any) {
	for i, seg := range segs {
		if i == len(segs)-1 {
			u.setChild(cur, seg, NewScalar(v))
			return
		}
		next := u.child(cur, seg)
		if next == nil || next.Kind == Scalar {
			want := Mapping
			if _, ok := u.index(segs[i+1]); ok {
				want = Sequence
			}
			next = &Node{Kind: want}
			u.setChild(cur, seg, next)
		}
		cur = next
	}
}

func (u *unflattener) child(n *Node, seg string) *Node {
	if n.Kind == Sequence {
		idx, ok := u.index(seg)
		if ok && idx < len(n.Items) && !u.holes[n.Items[idx]] {
			return n.Items[idx]
		}
		return nil
	}
	return n.Get(seg)
}

func (u *unflattener) setChild(n *Node, seg string, v *Node) {
	if n.Kind == Sequence {
		idx, ok := u.index(seg)
		if ok {
			for len(n.Items) <= idx {
				hole := NewScalar(nil)
				u.holes[hole] = true
				n.Items = append(n.Items, hole)
			}
			n.Items[idx] = v
			return
		}
		u.toMapping(n)
	}
	for i := range n.Fields {
		if n.Fields[i].Key == seg {
			n.Fields[i].Value = v
			return
		}
	}
	n.Fields = append(n.Fields, Field{Key: seg, Value: v})
}

// toMapping turns a sequence into a mapping keyed by index text, dropping
// the null padding.
func (u *unflattener) toMapping(n *Node) {
	fields := make([]Field, 0, len(n.Items))
	for i, item := range n.Items {
		if u.holes[item] {
			continue
		}
		fields = append(fields, Field{Key: strconv.Itoa(i), Value: item})
	}
	n.Kind = Mapping
	n.Fields = fields
	n.Items = nil
}

func isIndex(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
