package monitor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/allbin/go-serialscope/numeric"
)

// PatternFormat is how a highlight pattern is written.
type PatternFormat string

const (
	PatternText    PatternFormat = "text"
	PatternHex     PatternFormat = "hex"
	PatternDecimal PatternFormat = "decimal"
)

// Rule marks every occurrence of a byte pattern in captured frames.
// CaseSensitive only affects text patterns.
type Rule struct {
	Name          string        `yaml:"name" mapstructure:"name"`
	Pattern       string        `yaml:"pattern" mapstructure:"pattern"`
	Format        PatternFormat `yaml:"format,omitempty" mapstructure:"format"`
	CaseSensitive bool          `yaml:"case-sensitive,omitempty" mapstructure:"case-sensitive"`
	Color         string        `yaml:"color,omitempty" mapstructure:"color"`
}

// Bytes parses the rule's pattern.
func (r Rule) Bytes() ([]byte, error) {
	var (
		b   []byte
		err error
	)
	switch PatternFormat(strings.ToLower(string(r.Format))) {
	case PatternText, "":
		b = []byte(r.Pattern)
	case PatternHex:
		b, err = numeric.ParseBytes(r.Pattern, numeric.FormatHex)
	case PatternDecimal:
		b, err = numeric.ParseBytes(r.Pattern, numeric.FormatDecimal)
	default:
		err = fmt.Errorf("unknown pattern format %q", r.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRule, r.Name, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: %s: empty pattern", ErrInvalidRule, r.Name)
	}
	return b, nil
}

func (r Rule) textual() bool {
	f := PatternFormat(strings.ToLower(string(r.Format)))
	return f == PatternText || f == ""
}

// Match is one occurrence of a rule in a frame.
type Match struct {
	Rule   string
	Color  string
	Offset int
	Length int
}

// End is the offset just past the match.
func (m Match) End() int { return m.Offset + m.Length }

type compiledRule struct {
	rule    Rule
	pattern []byte
	fold    bool
}

// Highlighter matches a fixed set of rules against frames.
type Highlighter struct {
	rules []compiledRule
}

// NewHighlighter compiles rules. Every rule needs a name and a pattern
// that parses in its format.
func NewHighlighter(rules ...Rule) (*Highlighter, error) {
	h := &Highlighter{}
	for _, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: rule for %q has no name", ErrInvalidRule, r.Pattern)
		}
		b, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		h.rules = append(h.rules, compiledRule{rule: r, pattern: b, fold: r.textual() && !r.CaseSensitive})
	}
	return h, nil
}

// Rules returns the compiled rules in order.
func (h *Highlighter) Rules() []Rule {
	out := make([]Rule, len(h.rules))
	for i, c := range h.rules {
		out[i] = c.rule
	}
	return out
}

// Match returns every occurrence of every rule in data ordered by offset.
// Occurrences may overlap.
func (h *Highlighter) Match(data []byte) []Match {
	if h == nil || len(h.rules) == 0 {
		return nil
	}
	var out []Match
	for _, c := range h.rules {
		for _, off := range numeric.Index(data, c.pattern, !c.fold) {
			out = append(out, Match{Rule: c.rule.Name, Color: c.rule.Color, Offset: off, Length: len(c.pattern)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}
