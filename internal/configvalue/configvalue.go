// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package configvalue defines the untyped configuration tree handed to
// plugins. A Value is a closed union of exactly five shapes: string, integer,
// boolean, ordered list, and ordered string-keyed table. Values are immutable
// once constructed; plugins pattern-match on the Kind and reject anything
// that does not fit their documented shape.
package configvalue

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which shape a Value holds.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindBoolean
	KindList
	KindTable
)

// String returns the human-readable name of the kind, used in error messages.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindList:
		return "list"
	case KindTable:
		return "table"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entry is one key/value pair of a table. Table entries keep the order in
// which they were inserted by the configuration parser.
type Entry struct {
	Key   string
	Value Value
}

// Value is one node of a configuration tree.
//
// The zero Value is the empty string. Copying a Value is cheap; the backing
// list and table storage is shared and never mutated after construction.
type Value struct {
	kind    Kind
	str     string
	integer int64
	boolean bool
	list    []Value
	entries []Entry
	index   map[string]int
}

// NewString returns a string Value.
func NewString(s string) Value { return Value{kind: KindString, str: s} }

// NewInteger returns an integer Value.
func NewInteger(i int64) Value { return Value{kind: KindInteger, integer: i} }

// NewBoolean returns a boolean Value.
func NewBoolean(b bool) Value { return Value{kind: KindBoolean, boolean: b} }

// NewList returns a list Value holding the given elements in order.
func NewList(elems ...Value) Value {
	list := make([]Value, len(elems))
	copy(list, elems)
	return Value{kind: KindList, list: list}
}

// NewTable returns a table Value holding the given entries in order.
// Duplicate keys are rejected; the configuration format guarantees key
// uniqueness and the core relies on it.
func NewTable(entries ...Entry) (Value, error) {
	index := make(map[string]int, len(entries))
	copied := make([]Entry, len(entries))
	for i, e := range entries {
		if _, dup := index[e.Key]; dup {
			return Value{}, fmt.Errorf("duplicate table key %q", e.Key)
		}
		index[e.Key] = i
		copied[i] = e
	}
	return Value{kind: KindTable, entries: copied, index: index}, nil
}

// MustTable is NewTable for entries known to be unique, panicking otherwise.
// Intended for tests and built-in defaults.
func MustTable(entries ...Entry) Value {
	v, err := NewTable(entries...)
	if err != nil {
		panic(err)
	}
	return v
}

// Kind reports which shape this Value holds.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string payload, reporting whether the Value is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsInteger returns the integer payload, reporting whether the Value is an integer.
func (v Value) AsInteger() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.integer, true
}

// AsBoolean returns the boolean payload, reporting whether the Value is a boolean.
func (v Value) AsBoolean() (bool, bool) {
	if v.kind != KindBoolean {
		return false, false
	}
	return v.boolean, true
}

// AsList returns the list elements in order, reporting whether the Value is a list.
// The returned slice must not be modified.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// Entries returns the table entries in insertion order, reporting whether the
// Value is a table. The returned slice must not be modified.
func (v Value) Entries() ([]Entry, bool) {
	if v.kind != KindTable {
		return nil, false
	}
	return v.entries, true
}

// Get looks up a table key. It returns false for missing keys and for
// non-table Values.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindTable {
		return Value{}, false
	}
	i, ok := v.index[key]
	if !ok {
		return Value{}, false
	}
	return v.entries[i].Value, true
}

// Len returns the number of elements of a list or entries of a table, and 0
// for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindTable:
		return len(v.entries)
	default:
		return 0
	}
}

// Equal reports deep equality of two Values. Tables compare entry order as
// well as content, matching the ordered-table semantics of the format.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindInteger:
		return v.integer == other.integer
	case KindBoolean:
		return v.boolean == other.boolean
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindTable:
		if len(v.entries) != len(other.entries) {
			return false
		}
		for i := range v.entries {
			if v.entries[i].Key != other.entries[i].Key {
				return false
			}
			if !v.entries[i].Value.Equal(other.entries[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders the Value in a compact single-line form for diagnostics.
func (v Value) String() string {
	var b strings.Builder
	v.render(&b)
	return b.String()
}

func (v Value) render(b *strings.Builder) {
	switch v.kind {
	case KindString:
		b.WriteString(strconv.Quote(v.str))
	case KindInteger:
		b.WriteString(strconv.FormatInt(v.integer, 10))
	case KindBoolean:
		b.WriteString(strconv.FormatBool(v.boolean))
	case KindList:
		b.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				b.WriteString(", ")
			}
			e.render(b)
		}
		b.WriteByte(']')
	case KindTable:
		b.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.Key)
			b.WriteString(": ")
			e.Value.render(b)
		}
		b.WriteByte('}')
	}
}
