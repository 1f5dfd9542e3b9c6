// Package draft implements the reconciliation state machine behind batch
// editing screens: load a collection, edit a local draft, diff it against the
// last-persisted baseline, and flush only the changed records with per-record
// success/failure handling.
package draft

import "sort"

// TokenSet is an unordered set of attribute tokens. Equality is membership
// equality; token order never matters anywhere in this package.
type TokenSet map[string]struct{}

// NewTokenSet builds a set from the given tokens, collapsing duplicates.
func NewTokenSet(tokens ...string) TokenSet {
	s := make(TokenSet, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether token is a member of the set.
func (s TokenSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Add inserts token into the set.
func (s TokenSet) Add(token string) {
	s[token] = struct{}{}
}

// Remove deletes token from the set.
func (s TokenSet) Remove(token string) {
	delete(s, token)
}

// Len returns the set cardinality.
func (s TokenSet) Len() int {
	return len(s)
}

// Equal reports set equality: same cardinality, same members.
func (s TokenSet) Equal(other TokenSet) bool {
	if len(s) != len(other) {
		return false
	}
	for t := range s {
		if _, ok := other[t]; !ok {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set.
func (s TokenSet) Clone() TokenSet {
	c := make(TokenSet, len(s))
	for t := range s {
		c[t] = struct{}{}
	}
	return c
}

// Slice returns the members as a sorted slice. Sorting keeps JSON payloads
// and log lines stable; consumers must not read meaning into the order.
func (s TokenSet) Slice() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Vocabulary is the fixed set of tokens an engine accepts, in declaration
// order. Tokens outside the vocabulary are dropped during seeding, never
// stored, never surfaced. Declaration order is the display order: weekday
// vocabularies render mon before fri regardless of spelling.
type Vocabulary struct {
	allowed TokenSet
	order   []string
}

// NewVocabulary builds a vocabulary from the allowed tokens, keeping their
// declaration order. Duplicates collapse to the first occurrence.
func NewVocabulary(tokens ...string) Vocabulary {
	v := Vocabulary{allowed: make(TokenSet, len(tokens))}
	for _, t := range tokens {
		if v.allowed.Has(t) {
			continue
		}
		v.allowed.Add(t)
		v.order = append(v.order, t)
	}
	return v
}

// Contains reports whether token belongs to the vocabulary.
func (v Vocabulary) Contains(token string) bool {
	return v.allowed.Has(token)
}

// Tokens returns the vocabulary members in declaration order.
func (v Vocabulary) Tokens() []string {
	return append([]string(nil), v.order...)
}

// Order returns the set's members in vocabulary declaration order. Members
// outside the vocabulary, which normalization should have removed, trail the
// ordered ones sorted lexically.
func (v Vocabulary) Order(s TokenSet) []string {
	out := make([]string, 0, len(s))
	for _, t := range v.order {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	if len(out) < len(s) {
		rest := make([]string, 0, len(s)-len(out))
		for t := range s {
			if !v.allowed.Has(t) {
				rest = append(rest, t)
			}
		}
		sort.Strings(rest)
		out = append(out, rest...)
	}
	return out
}

// Normalize filters tokens against the vocabulary, returning the surviving
// set and the number of discarded tokens. Duplicates collapse silently and
// do not count as discards.
func (v Vocabulary) Normalize(tokens []string) (TokenSet, int) {
	s := make(TokenSet, len(tokens))
	discarded := 0
	for _, t := range tokens {
		if !v.allowed.Has(t) {
			discarded++
			continue
		}
		s[t] = struct{}{}
	}
	return s, discarded
}
