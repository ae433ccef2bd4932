package correlation

import (
	"slices"
	"strings"
)

// Delimiter separates identifiers in a rendered chain
const Delimiter = ","

// Chain is the ordered list of correlation identifiers from the outermost
// scope to the innermost one.
type Chain []string

// Append returns a new chain with id appended; c itself is left untouched
func (c Chain) Append(id string) Chain {
	next := make(Chain, len(c), len(c)+1)
	copy(next, c)
	return append(next, id)
}

// String joins the identifiers oldest first
func (c Chain) String() string {
	return strings.Join(c, Delimiter)
}

func (c Chain) Len() int {
	return len(c)
}

// Last returns the innermost identifier, or "" for an empty chain
func (c Chain) Last() string {
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1]
}

// HasPrefix reports whether prefix is a leading part of c
func (c Chain) HasPrefix(prefix Chain) bool {
	return len(prefix) <= len(c) && slices.Equal(c[:len(prefix)], prefix)
}

func (c Chain) Equal(other Chain) bool {
	return slices.Equal(c, other)
}

// Clone returns an independent copy of c
func (c Chain) Clone() Chain {
	if c == nil {
		return Chain{}
	}
	return slices.Clone(c)
}

// Parse splits a rendered chain back into identifiers. Blank segments are
// dropped, so Parse("") is the empty chain.
func Parse(s string) Chain {
	chain := Chain{}
	for _, id := range strings.Split(s, Delimiter) {
		if id = strings.TrimSpace(id); id != "" {
			chain = append(chain, id)
		}
	}
	return chain
}
