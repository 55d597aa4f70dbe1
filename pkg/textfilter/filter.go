package textfilter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

const (
	// MaxLength is the longest text the filter accepts, in characters.
	MaxLength = 5000

	// Repetition only applies to texts with more distinct chances to repeat.
	repetitionMinWords = 10
	minUniqueRatio     = 0.3
)

// DefaultBlockedWords are rejected anywhere in user content.
var DefaultBlockedWords = []string{"spam", "scam", "hack"}

// Rejection explains why a text was refused.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

// ContentFilter screens user-authored text for blocked words, length and spam.
type ContentFilter struct {
	words   []string
	regexes map[string]*regexp.Regexp
	folder  cases.Caser
}

// NewContentFilter creates a filter for the given words. Nil uses DefaultBlockedWords.
func NewContentFilter(blocked []string) *ContentFilter {
	if blocked == nil {
		blocked = DefaultBlockedWords
	}
	cf := &ContentFilter{
		words:   blocked,
		regexes: make(map[string]*regexp.Regexp, len(blocked)),
		folder:  cases.Fold(),
	}

	// Word prefix match so "hacking" and "scammer" are caught but "ashack" is not
	for _, word := range blocked {
		cf.regexes[word] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word))
	}
	return cf
}

// Check returns nil when the text passes, or a *Rejection.
func (cf *ContentFilter) Check(text string) error {
	if text == "" {
		return nil
	}

	for _, word := range cf.words {
		if cf.regexes[word].MatchString(text) {
			return &Rejection{Reason: fmt.Sprintf("Content contains inappropriate word: %s", word)}
		}
	}

	if utf8.RuneCountInString(text) > MaxLength {
		return &Rejection{Reason: fmt.Sprintf("Content too long (max %d characters)", MaxLength)}
	}

	if cf.IsRepetitive(text) {
		return &Rejection{Reason: "Content appears to be spam (too repetitive)"}
	}
	return nil
}

// ContainsBlocked reports whether any blocked word appears in the text.
func (cf *ContentFilter) ContainsBlocked(text string) bool {
	for _, word := range cf.words {
		if cf.regexes[word].MatchString(text) {
			return true
		}
	}
	return false
}

// IsRepetitive reports whether fewer than 30% of the words of a long text are distinct.
// Words are compared case-folded.
func (cf *ContentFilter) IsRepetitive(text string) bool {
	words := strings.Fields(cf.folder.String(text))
	if len(words) <= repetitionMinWords {
		return false
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	return float64(len(unique))/float64(len(words)) < minUniqueRatio
}
