package safety

import (
	"strings"
)

// Category names the lexicon that matched.
type Category string

const (
	CategoryNone       Category = ""
	CategoryDisallowed Category = "disallowed_language"
	CategorySelfHarm   Category = "self_harm"
)

const (
	RewriteMessage = "Please rewrite your text using respectful language."

	SupportMessage = "HeartNote AI cannot continue this request.\n\n" +
		"• You deserve care.\n" +
		"• You are not alone.\n" +
		"• Your feelings matter."
)

var disallowedTerms = []string{
	"fuck", "bitch", "shit", "asshole", "bastard",
	"slut", "dick", "pussy", "kill you", "hurt you",
}

var selfHarmPhrases = []string{
	"kill myself", "kill me", "i want to die", "end my life",
	"i want to disappear", "self harm", "i can't live", "no reason to live",
}

// Matcher decides whether normalized text contains a lexicon term.
type Matcher interface {
	Match(text string, terms []string) (string, bool)
}

// SubstringMatcher is plain containment and over-matches ("dick" inside
// "dickens").
type SubstringMatcher struct{}

func (SubstringMatcher) Match(text string, terms []string) (string, bool) {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return term, true
		}
	}
	return "", false
}

// Verdict is the outcome of a Check. Message is only set when Allowed is false.
type Verdict struct {
	Allowed  bool
	Category Category
	Message  string
	Term     string
}

type lexicon struct {
	category Category
	terms    []string
	message  string
}

// Filter checks raw user text against the disallowed-language lexicon and then
// the self-harm lexicon. It holds no mutable state.
type Filter struct {
	matcher  Matcher
	lexicons []lexicon
}

type Option func(*Filter)

// WithMatcher replaces substring containment.
func WithMatcher(m Matcher) Option {
	return func(f *Filter) {
		if m != nil {
			f.matcher = m
		}
	}
}

// WithExtraTerms extends the built-in lexicons; it never removes entries.
func WithExtraTerms(disallowed, selfHarm []string) Option {
	return func(f *Filter) {
		for i := range f.lexicons {
			switch f.lexicons[i].category {
			case CategoryDisallowed:
				f.lexicons[i].terms = appendNormalized(f.lexicons[i].terms, disallowed)
			case CategorySelfHarm:
				f.lexicons[i].terms = appendNormalized(f.lexicons[i].terms, selfHarm)
			}
		}
	}
}

func NewFilter(opts ...Option) *Filter {
	f := &Filter{
		matcher: SubstringMatcher{},
		lexicons: []lexicon{
			{category: CategoryDisallowed, terms: clone(disallowedTerms), message: RewriteMessage},
			{category: CategorySelfHarm, terms: clone(selfHarmPhrases), message: SupportMessage},
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Check returns the verdict for text. Lexicons are evaluated in order and the
// first match wins.
func (f *Filter) Check(text string) Verdict {
	normalized := strings.ToLower(text)

	for _, lx := range f.lexicons {
		if term, ok := f.matcher.Match(normalized, lx.terms); ok {
			return Verdict{
				Allowed:  false,
				Category: lx.category,
				Message:  lx.message,
				Term:     term,
			}
		}
	}
	return Verdict{Allowed: true}
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func appendNormalized(dst, extra []string) []string {
	for _, t := range extra {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			dst = append(dst, t)
		}
	}
	return dst
}
