package crawlers

import (
	"regexp"
	"slices"
	"strings"
)

// BlockList is an ordered list of literal tokens compiled once into a
// single case-insensitive alternation.
type BlockList struct {
	tokens []string
	re     *regexp.Regexp
}

// NewBlockList compiles tokens. Blank and repeated tokens are skipped.
func NewBlockList(tokens []string) *BlockList {
	b := &BlockList{}
	quoted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" || slices.ContainsFunc(b.tokens, func(s string) bool { return strings.EqualFold(s, t) }) {
			continue
		}
		b.tokens = append(b.tokens, t)
		quoted = append(quoted, regexp.QuoteMeta(t))
	}
	if len(quoted) > 0 {
		b.re = regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)
	}
	return b
}

// Match returns the first blocked token found in s.
func (b *BlockList) Match(s string) (string, bool) {
	if b == nil || b.re == nil || s == "" {
		return "", false
	}
	m := b.re.FindString(s)
	return m, m != ""
}

// Tokens returns the compiled tokens.
func (b *BlockList) Tokens() []string {
	return slices.Clone(b.tokens)
}

// Len returns the number of tokens.
func (b *BlockList) Len() int {
	return len(b.tokens)
}
