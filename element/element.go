// Package element models the JSON-like value tree handed to the hashing
// code by the document and query layers.
//
// The set of kinds is closed. An Element is an immutable value; the zero
// Element is Undefined.
package element

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the shape of an Element.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// IsScalar reports whether the kind can be a partition key component.
func (k Kind) IsScalar() bool {
	return k <= KindString
}

// Property is a single name/value pair of an object.
type Property struct {
	Name  string
	Value Element
}

// Element is a node of a JSON-like value tree.
type Element struct {
	kind  Kind
	b     bool
	n     float64
	s     string
	items []Element
	props []Property
}

// Undefined returns the absent value.
func Undefined() Element { return Element{} }

// Null returns JSON null.
func Null() Element { return Element{kind: KindNull} }

// Bool returns a JSON boolean.
func Bool(b bool) Element { return Element{kind: KindBoolean, b: b} }

// Number returns a JSON number.
func Number(n float64) Element { return Element{kind: KindNumber, n: n} }

// Int returns a JSON number holding an integer.
func Int(n int64) Element { return Element{kind: KindNumber, n: float64(n)} }

// String returns a JSON string.
func String(s string) Element { return Element{kind: KindString, s: s} }

// Array returns a JSON array. The items are copied.
func Array(items ...Element) Element {
	cp := make([]Element, len(items))
	copy(cp, items)
	return Element{kind: KindArray, items: cp}
}

// Object returns a JSON object. Properties are copied in the given order; a
// repeated name keeps its last value in the first name's position.
func Object(props ...Property) Element {
	cp := make([]Property, 0, len(props))
	index := make(map[string]int, len(props))
	for _, p := range props {
		if i, ok := index[p.Name]; ok {
			cp[i].Value = p.Value
			continue
		}
		index[p.Name] = len(cp)
		cp = append(cp, p)
	}
	return Element{kind: KindObject, props: cp}
}

// Prop is shorthand for building a Property.
func Prop(name string, value Element) Property {
	return Property{Name: name, Value: value}
}

// Kind returns the element kind.
func (e Element) Kind() Kind { return e.kind }

// IsUndefined reports whether e is the absent value.
func (e Element) IsUndefined() bool { return e.kind == KindUndefined }

// Bool returns the boolean value; false for other kinds.
func (e Element) Bool() bool { return e.b }

// Number returns the numeric value; 0 for other kinds.
func (e Element) Number() float64 { return e.n }

// Str returns the string value; "" for other kinds.
func (e Element) Str() string { return e.s }

// Len returns the number of array items or object properties.
func (e Element) Len() int {
	switch e.kind {
	case KindArray:
		return len(e.items)
	case KindObject:
		return len(e.props)
	default:
		return 0
	}
}

// Index returns the i-th array item.
func (e Element) Index(i int) Element { return e.items[i] }

// Items returns a copy of the array items.
func (e Element) Items() []Element {
	cp := make([]Element, len(e.items))
	copy(cp, e.items)
	return cp
}

// Properties returns a copy of the object properties in insertion order.
func (e Element) Properties() []Property {
	cp := make([]Property, len(e.props))
	copy(cp, e.props)
	return cp
}

// Get returns the named property of an object. Missing properties and
// non-objects yield Undefined.
func (e Element) Get(name string) (Element, bool) {
	for _, p := range e.props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return Undefined(), false
}

// Lookup walks a slash separated path such as "/address/city". Segments use
// JSON pointer escaping ("~1" for "/", "~0" for "~"). Numeric segments index
// into arrays.
func (e Element) Lookup(path string) (Element, bool) {
	if path == "" {
		return e, true
	}
	cur := e
	for _, seg := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		switch cur.kind {
		case KindObject:
			next, ok := cur.Get(seg)
			if !ok {
				return Undefined(), false
			}
			cur = next
		case KindArray:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(cur.items) {
				return Undefined(), false
			}
			cur = cur.items[i]
		default:
			return Undefined(), false
		}
	}
	return cur, true
}

// Equal reports structural equality. Object property order is ignored and
// array item order is significant.
func (e Element) Equal(o Element) bool {
	if e.kind != o.kind {
		return false
	}
	switch e.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return e.b == o.b
	case KindNumber:
		return e.n == o.n
	case KindString:
		return e.s == o.s
	case KindArray:
		if len(e.items) != len(o.items) {
			return false
		}
		for i := range e.items {
			if !e.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(e.props) != len(o.props) {
			return false
		}
		for _, p := range e.props {
			v, ok := o.Get(p.Name)
			if !ok || !p.Value.Equal(v) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders e as compact JSON, with "undefined" for absent values.
func (e Element) String() string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func (e Element) write(sb *strings.Builder) {
	switch e.kind {
	case KindUndefined:
		sb.WriteString("undefined")
	case KindNull:
		sb.WriteString("null")
	case KindBoolean:
		sb.WriteString(strconv.FormatBool(e.b))
	case KindNumber:
		sb.WriteString(strconv.FormatFloat(e.n, 'g', -1, 64))
	case KindString:
		sb.WriteString(strconv.Quote(e.s))
	case KindArray:
		sb.WriteByte('[')
		for i, it := range e.items {
			if i > 0 {
				sb.WriteByte(',')
			}
			it.write(sb)
		}
		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')
		for i, p := range e.props {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(p.Name))
			sb.WriteByte(':')
			p.Value.write(sb)
		}
		sb.WriteByte('}')
	default:
		fmt.Fprintf(sb, "<%s>", e.kind)
	}
}
