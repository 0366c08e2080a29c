// Package testutil holds grammar fixtures and deterministic helpers shared by
// tests across packages.
package testutil

import (
	"strings"
	"testing"

	"github.com/roach88/grammatch/internal/grammar"
	"github.com/roach88/grammatch/internal/loader"
)

// SmallExample is a grammar whose rules all derive fixed-length strings.
// Exactly "ababbb" and "abbbab" match.
const SmallExample = `0: 4 1 5
1: 2 3 | 3 2
2: 4 4 | 5 5
3: 4 5 | 5 4
4: "a"
5: "b"

ababbb
bababa
abbbab
aaabbb
aaaabbb
`

// LoopExample uses rules 8 and 11 under 0: 8 11. Without rewriting, three
// messages match. With rules 8 and 11 rewritten into loops, twelve messages
// are derivable.
const LoopExample = `42: 9 14 | 10 1
9: 14 27 | 1 26
10: 23 14 | 28 1
1: "a"
11: 42 31
5: 1 14 | 15 1
19: 14 1 | 14 14
12: 24 14 | 19 1
16: 15 1 | 14 14
31: 14 17 | 1 13
6: 14 14 | 1 14
2: 1 24 | 14 4
0: 8 11
13: 14 3 | 1 12
15: 1 | 14
17: 14 2 | 1 7
23: 25 1 | 22 14
28: 16 1
4: 1 1
20: 14 14 | 1 15
3: 5 14 | 16 1
27: 1 6 | 14 18
14: "b"
21: 14 1 | 1 14
25: 1 1 | 1 14
22: 14 14
8: 42
26: 14 22 | 1 20
18: 15 15
7: 14 5 | 1 21
24: 14 1

abbbbbabbbaaaababbaabbbbabababbbabbbbbbabaaaa
bbabbbbaabaabba
babbbbaabbbbbabbbbbbaabaaabaaa
aaabbbbbbaaaabaababaabababbabaaabbababababaaa
bbbbbbbaaaabbbbaaabbabaaa
bbbababbbbaaaaaaaabbababaaababaabab
ababaaaaaabaaab
ababaaaaabbbaba
baabbaaaabbaaaababbaababb
abbbbabbbbaaaababbbbbbaaaababb
aaaaabbaabaaaaababaa
aaaabbaaaabbaaa
aaaabbaabbaaaaaaabbbabbbaaabbaabaaa
babaaabbbaaabaababbaabababaaab
aabbbbbaabbbaaaaaabbbbbababaaaaabbaaabba
`

// LoopExampleMatches are the LoopExample messages that match before the
// loop rewrite.
var LoopExampleMatches = []string{
	"bbabbbbaabaabba",
	"ababaaaaaabaaab",
	"ababaaaaabbbaba",
}

// LoopExampleLoopMatches are the LoopExample messages derivable after the
// loop rewrite.
var LoopExampleLoopMatches = []string{
	"bbabbbbaabaabba",
	"babbbbaabbbbbabbbbbbaabaaabaaa",
	"aaabbbbbbaaaabaababaabababbabaaabbababababaaa",
	"bbbbbbbaaaabbbbaaabbabaaa",
	"bbbababbbbaaaaaaaabbababaaababaabab",
	"ababaaaaaabaaab",
	"ababaaaaabbbaba",
	"baabbaaaabbaaaababbaababb",
	"abbbbabbbbaaaababbbbbbaaaababb",
	"aaaaabbaabaaaaababaa",
	"aaaabbaabbaaaaaaabbbabbbaaabbaabaaa",
	"aabbbbbaabbbaaaaaabbbbbababaaaaabbaaabba",
}

// ParseDocument parses a text-format fixture, failing the test on error.
func ParseDocument(t *testing.T, text string) *loader.Document {
	t.Helper()
	doc, err := loader.ParseText(strings.NewReader(text), loader.Options{})
	if err != nil {
		t.Fatalf("ParseText() failed: %v", err)
	}
	return doc
}

// ScenarioA is {0: 1 2, 1: "a", 2: "b"}; it derives exactly "ab".
func ScenarioA() *grammar.Grammar {
	return grammar.MustNew(
		grammar.NewRule(0, grammar.Seq(1, 2)),
		grammar.NewRule(1, grammar.Lit('a')),
		grammar.NewRule(2, grammar.Lit('b')),
	)
}

// OneOrMore is {0: 1 | 1 0, 1: "a"}; it derives one or more 'a's.
func OneOrMore() *grammar.Grammar {
	return grammar.MustNew(
		grammar.NewRule(0, grammar.Seq(1), grammar.Seq(1, 0)),
		grammar.NewRule(1, grammar.Lit('a')),
	)
}

// OneOrMoreRecursionFirst is OneOrMore with the recursive alternative tried
// first: {0: 1 0 | 1, 1: "a"}.
func OneOrMoreRecursionFirst() *grammar.Grammar {
	return grammar.MustNew(
		grammar.NewRule(0, grammar.Seq(1, 0), grammar.Seq(1)),
		grammar.NewRule(1, grammar.Lit('a')),
	)
}
