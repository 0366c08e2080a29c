// Package loader reads grammars and candidate strings from files.
//
// Two formats are supported. The text format lists rules, a blank line, and
// then one candidate per line:
//
//	0: 4 1 5
//	1: 2 3 | 3 2
//	4: "a"
//
//	ababbb
//	bababa
//
// Files ending in .cue are compiled with package compiler instead.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/grammatch/internal/compiler"
	"github.com/roach88/grammatch/internal/grammar"
)

// Document is a grammar together with the candidates to check against it.
type Document struct {
	Grammar    *grammar.Grammar
	Start      grammar.RuleID
	Candidates []string
}

// Options controls parsing.
type Options struct {
	// Normalize applies Unicode NFC to literals and candidates so that
	// composed and decomposed spellings of a symbol compare equal.
	Normalize bool
}

// ParseError reports a malformed line in the text format.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// LoadFile reads a document from path, choosing the format by extension.
func LoadFile(path string, opts Options) (*Document, error) {
	if filepath.Ext(path) == ".cue" {
		c, err := compiler.CompileFile(path)
		if err != nil {
			return nil, err
		}
		doc := &Document{Grammar: c.Grammar, Start: c.Start, Candidates: c.Messages}
		if opts.Normalize {
			return normalizeDocument(doc)
		}
		return doc, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	doc, err := ParseText(f, opts)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// ParseText parses the text format. The start rule is always 0.
//
// A document without a blank line is all rules and has no candidates.
// Candidate lines keep interior blank lines (the empty string is a valid
// candidate) but trailing blank lines are dropped.
func ParseText(r io.Reader, opts Options) (*Document, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		rules      []grammar.Rule
		candidates []string
		inRules    = true
		lineNo     = 0
	)

	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")

		if inRules {
			if strings.TrimSpace(line) == "" {
				inRules = false
				continue
			}
			rule, err := parseRuleLine(line, opts)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Message: err.Error()}
			}
			rules = append(rules, rule)
			continue
		}

		if opts.Normalize {
			line = norm.NFC.String(line)
		}
		candidates = append(candidates, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	for len(candidates) > 0 && candidates[len(candidates)-1] == "" {
		candidates = candidates[:len(candidates)-1]
	}

	if len(rules) == 0 {
		return nil, &ParseError{Line: lineNo, Message: "no rules found"}
	}

	g, err := grammar.New(rules...)
	if err != nil {
		return nil, &ParseError{Line: lineNo, Message: err.Error()}
	}

	return &Document{Grammar: g, Candidates: candidates}, nil
}

// ParseRule parses a single rule line such as `8: 42 | 42 8` or `4: "a"`.
func ParseRule(line string) (grammar.Rule, error) {
	return parseRuleLine(line, Options{})
}

func parseRuleLine(line string, opts Options) (grammar.Rule, error) {
	key, body, ok := strings.Cut(line, ":")
	if !ok {
		return grammar.Rule{}, fmt.Errorf("expected `<id>: <alternatives>`, got %q", line)
	}

	id, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil || id < 0 {
		return grammar.Rule{}, fmt.Errorf("invalid rule id %q", strings.TrimSpace(key))
	}

	rule := grammar.Rule{ID: grammar.RuleID(id)}
	for _, part := range splitAlternatives(body) {
		part = strings.TrimSpace(part)
		if part == "" {
			return grammar.Rule{}, fmt.Errorf("rule %d has an empty alternative", id)
		}

		if strings.HasPrefix(part, `"`) {
			lit, err := parseLiteral(part, opts)
			if err != nil {
				return grammar.Rule{}, fmt.Errorf("rule %d: %w", id, err)
			}
			rule.Alternatives = append(rule.Alternatives, lit)
			continue
		}

		var refs []grammar.RuleID
		for _, field := range strings.Fields(part) {
			ref, err := strconv.Atoi(field)
			if err != nil || ref < 0 {
				return grammar.Rule{}, fmt.Errorf("rule %d: invalid reference %q", id, field)
			}
			refs = append(refs, grammar.RuleID(ref))
		}
		rule.Alternatives = append(rule.Alternatives, grammar.Sequence{Refs: refs})
	}

	return rule, nil
}

// splitAlternatives splits a rule body on '|' outside quoted literals, so
// `"|"` is a literal and not an empty pair of alternatives. Backslash
// escapes inside quotes are skipped over; strconv.Unquote validates them.
func splitAlternatives(body string) []string {
	var (
		parts   []string
		start   int
		inQuote bool
	)
	for i := 0; i < len(body); i++ {
		switch c := body[i]; {
		case inQuote && c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case !inQuote && c == '|':
			parts = append(parts, body[start:i])
			start = i + 1
		}
	}
	return append(parts, body[start:])
}

func parseLiteral(quoted string, opts Options) (grammar.Production, error) {
	s, err := strconv.Unquote(quoted)
	if err != nil {
		return nil, fmt.Errorf("invalid literal %s", quoted)
	}
	if opts.Normalize {
		s = norm.NFC.String(s)
	}
	if utf8.RuneCountInString(s) != 1 {
		return nil, fmt.Errorf("literal %s must be exactly one symbol", quoted)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return grammar.Literal{Symbol: r}, nil
}

// normalizeDocument applies NFC to a document compiled from CUE.
func normalizeDocument(doc *Document) (*Document, error) {
	rules := doc.Grammar.Rules()
	for i, rule := range rules {
		for j, alt := range rule.Alternatives {
			lit, ok := alt.(grammar.Literal)
			if !ok {
				continue
			}
			s := norm.NFC.String(string(lit.Symbol))
			if utf8.RuneCountInString(s) != 1 {
				return nil, fmt.Errorf("rule %d: literal %q is not a single symbol after normalization", rule.ID, s)
			}
			r, _ := utf8.DecodeRuneInString(s)
			rules[i].Alternatives[j] = grammar.Literal{Symbol: r}
		}
	}

	g, err := grammar.New(rules...)
	if err != nil {
		return nil, err
	}

	candidates := make([]string, len(doc.Candidates))
	for i, c := range doc.Candidates {
		candidates[i] = norm.NFC.String(c)
	}
	return &Document{Grammar: g, Start: doc.Start, Candidates: candidates}, nil
}

// FormatText renders doc in the text format. Rules are sorted by id, so
// ParseText(FormatText(doc)) yields an equal document when doc.Start is 0.
func FormatText(doc *Document) string {
	var b strings.Builder
	b.WriteString(doc.Grammar.String())
	if len(doc.Candidates) > 0 {
		b.WriteString("\n")
		for _, c := range doc.Candidates {
			b.WriteString(c)
			b.WriteString("\n")
		}
	}
	return b.String()
}
