// Package guardrail decides whether a query may be answered at all.
//
// Matching is a plain case-insensitive substring test, not tokenized: a deny
// term hidden inside a longer word ("buy" in "buyback") still denies, and a
// scope term inside a longer word ("nav" in "navigate") still counts.
package guardrail

import "strings"

// Decision is the outcome of classifying a query.
type Decision int

const (
	Allowed Decision = iota
	Denied
	OutOfScope
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	case OutOfScope:
		return "out_of_scope"
	default:
		return "unknown"
	}
}

// Denial reasons.
const (
	ReasonEmpty  = "empty query"
	ReasonPolicy = "out-of-policy topic"
)

// Verdict is the classification of one query.
type Verdict struct {
	Decision Decision
	Reason   string
	// Term is the list entry that decided the verdict, if any.
	Term string
}

// DefaultDenyTerms flag advice, prediction and regulated-topic requests.
var DefaultDenyTerms = []string{
	"buy", "sell", "which stock", "prediction", "future price", "best stock",
	"crypto", "bitcoin", "ethereum", "portfolio", "advice", "suggest",
	"recommend", "should i", "loan", "tax", "insurance", "policy", "predict",
}

// DefaultScopeTerms mark generic finance vocabulary and the organization itself.
var DefaultScopeTerms = []string{
	"nav", "inflation", "deflation", "assets", "liabilities", "aum", "capital",
	"risk", "return", "valuation", "equity", "bond", "fund", "market cap",
	"etf", "mutual fund", "expense ratio",
	"aryzen", "aryzen capital", "aryzen advisors",
	"aryzen capital advisors", "aryzen services", "aryzen team",
}

// Classifier holds the two term lists. It has no mutable state.
type Classifier struct {
	deny  []string
	scope []string
}

// New builds a classifier; nil lists fall back to the defaults.
func New(deny, scope []string) *Classifier {
	if deny == nil {
		deny = DefaultDenyTerms
	}
	if scope == nil {
		scope = DefaultScopeTerms
	}
	return &Classifier{deny: normalize(deny), scope: normalize(scope)}
}

// Classify applies, in order: empty check, deny-list, scope-list.
func (c *Classifier) Classify(query string) Verdict {
	q := strings.ToLower(query)
	if strings.TrimSpace(q) == "" {
		return Verdict{Decision: Denied, Reason: ReasonEmpty}
	}
	if term, ok := firstMatch(q, c.deny); ok {
		return Verdict{Decision: Denied, Reason: ReasonPolicy, Term: term}
	}
	term, ok := firstMatch(q, c.scope)
	if !ok {
		return Verdict{Decision: OutOfScope}
	}
	return Verdict{Decision: Allowed, Term: term}
}

func firstMatch(q string, terms []string) (string, bool) {
	for _, t := range terms {
		if strings.Contains(q, t) {
			return t, true
		}
	}
	return "", false
}

func normalize(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
