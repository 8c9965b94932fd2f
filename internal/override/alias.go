package override

import (
	"fmt"
	"strings"
)

// Alias maps an identifier prefix to a replacement path prefix.
type Alias struct {
	Prefix      string
	Replacement string
}

// AliasTable is an ordered, read-only list of aliases. When several
// prefixes match an identifier, the entry added first wins.
type AliasTable struct {
	entries []Alias
}

// NewAliasTable builds a table in the order given. Empty prefixes are rejected
// because they would match every identifier.
func NewAliasTable(entries ...Alias) (AliasTable, error) {
	for i, e := range entries {
		if e.Prefix == "" {
			return AliasTable{}, fmt.Errorf("%w: alias %d has an empty prefix", ErrConfiguration, i)
		}
	}
	return AliasTable{entries: append([]Alias(nil), entries...)}, nil
}

// Normalize replaces the leading prefix of id with the replacement of the
// first matching alias. It reports whether an alias matched.
func (t AliasTable) Normalize(id string) (string, bool) {
	for _, e := range t.entries {
		if strings.HasPrefix(id, e.Prefix) {
			return e.Replacement + id[len(e.Prefix):], true
		}
	}
	return id, false
}

// Entries returns a copy of the table in match order.
func (t AliasTable) Entries() []Alias {
	return append([]Alias(nil), t.entries...)
}

func (t AliasTable) Len() int {
	return len(t.entries)
}
