package i18n

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Value is one node of a language tree: a template string, a nested map of
// further nodes, or a number or boolean that no key resolves to.
type Value struct {
	text     string
	children map[string]*Value
	scalar   bool
}

// Text returns a leaf value.
func Text(s string) *Value { return &Value{text: s} }

// Tree returns a branch value.
func Tree(children map[string]*Value) *Value {
	if children == nil {
		children = map[string]*Value{}
	}
	return &Value{children: children}
}

// IsLeaf reports whether v holds a template string.
func (v *Value) IsLeaf() bool { return v != nil && v.children == nil && !v.scalar }

// Has reports whether a branch contains the given direct child.
func (v *Value) Has(name string) bool {
	if v == nil || v.children == nil {
		return false
	}
	_, ok := v.children[name]
	return ok
}

// Keys lists the direct children of a branch in sorted order.
func (v *Value) Keys() []string {
	if v == nil {
		return nil
	}
	keys := make([]string, 0, len(v.children))
	for k := range v.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup walks a dotted path. ok is false when a segment is missing or the
// path ends on anything but a string.
func (v *Value) Lookup(path string) (string, bool) {
	node := v
	for _, seg := range strings.Split(path, ".") {
		if node == nil || node.children == nil {
			return "", false
		}
		next, found := node.children[seg]
		if !found {
			return "", false
		}
		node = next
	}
	if !node.IsLeaf() {
		return "", false
	}
	return node.text, true
}

// UnmarshalJSON accepts nested objects of strings. Numbers and booleans are
// accepted but are not templates; null becomes an empty string.
func (v *Value) UnmarshalJSON(b []byte) error {
	var obj map[string]*Value
	if err := json.Unmarshal(b, &obj); err == nil && obj != nil {
		v.children = obj
		v.text = ""
		v.scalar = false
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v.text = s
		v.children = nil
		v.scalar = false
		return nil
	}

	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch raw.(type) {
	case nil:
		v.text = ""
		v.scalar = false
	case float64, bool:
		v.text = ""
		v.scalar = true
	default:
		return fmt.Errorf("unsupported language value %s", string(b))
	}
	v.children = nil
	return nil
}
