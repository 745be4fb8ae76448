// Package textindex tokenizes document fields into weighted search postings.
//
// Runs of letters and digits become lowercase terms. Runs of Han, Hiragana, or
// Katakana characters have no word boundaries, so they are split into overlapping
// character bigrams; a single-character run yields that character. Indexed text
// also posts every character of a CJK run as a unigram, so a one-character query
// matches that character inside longer words.
package textindex

import (
	"strings"
	"unicode"
)

// Field weights applied to term frequencies.
const (
	TitleWeight    = 3.0
	CategoryWeight = 2.0
	BodyWeight     = 1.0
)

// Fields holds the indexed text of a document.
type Fields struct {
	Title    string
	Category string
	Body     string
}

// Equal reports whether two field sets index identically.
func (f Fields) Equal(other Fields) bool {
	return f.Title == other.Title && f.Category == other.Category && f.Body == other.Body
}

// Postings maps each term to its field-weighted frequency.
type Postings map[string]float64

// Build tokenizes every field and accumulates weighted term frequencies.
func Build(f Fields) Postings {
	p := make(Postings)
	p.add(f.Title, TitleWeight)
	p.add(f.Category, CategoryWeight)
	p.add(f.Body, BodyWeight)
	return p
}

func (p Postings) add(text string, weight float64) {
	for _, term := range tokenize(text, true) {
		p[term] += weight
	}
}

// Terms returns the distinct terms of a query in first-seen order.
func Terms(query string) []string {
	tokens := Tokenize(query)
	seen := make(map[string]bool, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	return terms
}

// Tokenize splits text into lowercase query terms, repeating terms as they occur.
func Tokenize(text string) []string {
	return tokenize(text, false)
}

// tokenize splits text into terms. With unigrams set, CJK runs of two or more
// characters yield each character as well as the bigrams.
func tokenize(text string, unigrams bool) []string {
	var (
		tokens []string
		word   strings.Builder
		cjk    []rune
	)

	flushWord := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	flushCJK := func() {
		tokens = append(tokens, ngrams(cjk, unigrams)...)
		cjk = cjk[:0]
	}

	for _, r := range text {
		switch {
		case isCJK(r):
			flushWord()
			cjk = append(cjk, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushCJK()
			word.WriteRune(unicode.ToLower(r))
		default:
			flushWord()
			flushCJK()
		}
	}
	flushWord()
	flushCJK()

	return tokens
}

func ngrams(run []rune, unigrams bool) []string {
	switch len(run) {
	case 0:
		return nil
	case 1:
		return []string{string(run)}
	}

	out := make([]string, 0, 2*len(run))
	for i := range run {
		if unigrams {
			out = append(out, string(run[i]))
		}
		if i+1 < len(run) {
			out = append(out, string(run[i:i+2]))
		}
	}
	return out
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}
