package grammar

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioA() *Grammar {
	return MustNew(
		NewRule(0, Seq(1, 2)),
		NewRule(1, Lit('a')),
		NewRule(2, Lit('b')),
	)
}

func TestNew_DuplicateRule(t *testing.T) {
	_, err := New(NewRule(0, Lit('a')), NewRule(0, Lit('b')))
	require.Error(t, err)

	var dup *DuplicateRuleError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, RuleID(0), dup.ID)
}

func TestNew_DanglingReferenceIsLazy(t *testing.T) {
	g, err := New(NewRule(0, Seq(1, 99)), NewRule(1, Lit('a')))
	require.NoError(t, err, "dangling references are only reported at lookup")
	assert.Equal(t, 2, g.Len())
}

func TestDefine_Invalid(t *testing.T) {
	tests := []struct {
		name string
		id   RuleID
		alts []Production
	}{
		{"negative id", -1, []Production{Lit('a')}},
		{"no alternatives", 3, nil},
		{"nil alternative", 3, []Production{Lit('a'), nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Grammar{}
			err := g.Define(tt.id, tt.alts...)
			var inv *InvalidRuleError
			require.ErrorAs(t, err, &inv)
			assert.Equal(t, tt.id, inv.ID)
		})
	}
}

func TestDefine_ZeroValueGrammar(t *testing.T) {
	var g Grammar
	require.NoError(t, g.Define(5, Lit('x')))
	assert.True(t, g.Has(5))
}

func TestLookup(t *testing.T) {
	g := scenarioA()

	r, err := g.Lookup(0)
	require.NoError(t, err)
	assert.Equal(t, RuleID(0), r.ID)
	require.Len(t, r.Alternatives, 1)
	assert.Equal(t, Sequence{Refs: []RuleID{1, 2}}, r.Alternatives[0])

	_, err = g.Lookup(7)
	require.Error(t, err)
	assert.True(t, IsUnresolved(err))
	assert.Equal(t, "unresolved rule 7", err.Error())
}

func TestIsUnresolved_Wrapped(t *testing.T) {
	err := fmt.Errorf("matching: %w", &UnresolvedRuleError{ID: 4, From: 0, HasFrom: true})
	assert.True(t, IsUnresolved(err))
	assert.Contains(t, err.Error(), "referenced from rule 0")
	assert.False(t, IsUnresolved(fmt.Errorf("other")))
}

func TestClone_Independent(t *testing.T) {
	g := scenarioA()
	c := g.Clone()

	require.NoError(t, c.Define(1, Lit('z')))

	r, err := g.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, Literal{Symbol: 'a'}, r.Alternatives[0], "original must be untouched")
}

func TestNew_CopiesCallerSlices(t *testing.T) {
	refs := []RuleID{1, 2}
	g := MustNew(Rule{ID: 0, Alternatives: []Production{Sequence{Refs: refs}}}, NewRule(1, Lit('a')), NewRule(2, Lit('b')))
	refs[0] = 9

	r, err := g.Lookup(0)
	require.NoError(t, err)
	assert.Equal(t, []RuleID{1, 2}, r.Alternatives[0].(Sequence).Refs)
}

func TestString(t *testing.T) {
	g := MustNew(
		NewRule(8, Seq(42), Seq(42, 8)),
		NewRule(1, Lit('a')),
		NewRule(0, Seq(8, 11)),
	)

	assert.Equal(t, "0: 8 11\n1: \"a\"\n8: 42 | 42 8\n", g.String())
	assert.Equal(t, []RuleID{0, 1, 8}, g.IDs())
}

func TestReferences(t *testing.T) {
	r := NewRule(11, Seq(42, 31), Lit('q'), Seq(42, 11, 31))
	assert.Equal(t, []RuleID{42, 31, 42, 11, 31}, r.References())
}

func TestHash_StableAcrossOrder(t *testing.T) {
	a := MustNew(NewRule(0, Seq(1, 2)), NewRule(1, Lit('a')), NewRule(2, Lit('b')))
	b := MustNew(NewRule(2, Lit('b')), NewRule(1, Lit('a')), NewRule(0, Seq(1, 2)))
	c := MustNew(NewRule(0, Seq(2, 1)), NewRule(1, Lit('a')), NewRule(2, Lit('b')))

	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.Len(t, a.Hash(), 64)
}

func TestHash_CanonicallyEquivalentLiteralsDiffer(t *testing.T) {
	// U+212B ANGSTROM SIGN and U+00C5 are canonically equivalent but are
	// different symbols to the recognizer.
	angstrom := MustNew(NewRule(0, Lit('\u212B')))
	aRing := MustNew(NewRule(0, Lit('\u00C5')))

	require.NotEqual(t, angstrom.String(), aRing.String())
	assert.NotEqual(t, angstrom.Hash(), aRing.Hash())
}
