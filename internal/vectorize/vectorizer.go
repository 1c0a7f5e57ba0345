// Package vectorize turns cleaned issue text into TF-IDF weighted vectors
// over a vocabulary built from the corpus.
//
// The vocabulary and IDF weights are built once by Fit and frozen; Transform
// maps any text (seen or unseen) into that fixed space. Identical corpus and
// configuration always produce identical vocabulary ordering and weights.
package vectorize

import (
	"errors"
	"math"
	"regexp"
	"strings"
)

// ErrEmptyCorpus is returned by Fit when the corpus contains no documents.
var ErrEmptyCorpus = errors.New("empty corpus")

const (
	// DefaultNgramMin and DefaultNgramMax give unigrams + bigrams.
	DefaultNgramMin = 1
	DefaultNgramMax = 2
)

var tokenSplitRE = regexp.MustCompile(`[^a-z0-9]+`)

// Config controls vocabulary construction.
type Config struct {
	// NgramMin and NgramMax bound the n-gram sizes used as vocabulary
	// terms. Zero values fall back to unigrams + bigrams.
	NgramMin int
	NgramMax int

	// ExtraStopWords are filtered in addition to the built-in English
	// stopword list (e.g. domain noise like "feature", "issue").
	ExtraStopWords []string
}

// Vectorizer builds a frozen vocabulary from a corpus and maps documents
// into TF-IDF vectors over it.
type Vectorizer struct {
	ngramMin int
	ngramMax int
	stop     map[string]struct{}

	vocab  map[string]int // term -> column index, insertion order
	terms  []string       // column index -> term
	idf    []float64      // column index -> inverse document frequency
	fitted bool
}

// New creates an unfitted Vectorizer.
func New(cfg Config) *Vectorizer {
	if cfg.NgramMin <= 0 {
		cfg.NgramMin = DefaultNgramMin
	}
	if cfg.NgramMax < cfg.NgramMin {
		cfg.NgramMax = DefaultNgramMax
		if cfg.NgramMax < cfg.NgramMin {
			cfg.NgramMax = cfg.NgramMin
		}
	}

	stop := make(map[string]struct{}, len(englishStopWords)+len(cfg.ExtraStopWords))
	for _, w := range englishStopWords {
		stop[w] = struct{}{}
	}
	for _, w := range cfg.ExtraStopWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			stop[w] = struct{}{}
		}
	}

	return &Vectorizer{
		ngramMin: cfg.NgramMin,
		ngramMax: cfg.NgramMax,
		stop:     stop,
		vocab:    make(map[string]int),
	}
}

// Fit builds the vocabulary and IDF weights from the corpus. The vocabulary
// assigns column indices in first-seen order, so a fixed corpus always yields
// the same ordering. Fit may be called once; refitting replaces everything.
func (v *Vectorizer) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return ErrEmptyCorpus
	}

	v.vocab = make(map[string]int)
	v.terms = v.terms[:0]

	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, term := range v.termsOf(doc) {
			if _, ok := v.vocab[term]; !ok {
				v.vocab[term] = len(v.terms)
				v.terms = append(v.terms, term)
			}
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				df[term]++
			}
		}
	}

	// Smoothed IDF: ln((1+N)/(1+df)) + 1. Never negative, and frozen here —
	// Transform never recomputes it.
	n := float64(len(corpus))
	v.idf = make([]float64, len(v.terms))
	for term, col := range v.vocab {
		v.idf[col] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	v.fitted = true
	return nil
}

// Transform maps text into the frozen vocabulary space. Terms outside the
// vocabulary contribute zero weight; an empty document yields an all-zero
// vector. The Vectorizer must be fitted first.
func (v *Vectorizer) Transform(text string) []float64 {
	vec := make([]float64, len(v.terms))
	if !v.fitted {
		return vec
	}
	for _, term := range v.termsOf(text) {
		if col, ok := v.vocab[term]; ok {
			vec[col] += v.idf[col]
		}
	}
	return vec
}

// TransformAll maps every document into a row of the document-term matrix.
func (v *Vectorizer) TransformAll(corpus []string) [][]float64 {
	rows := make([][]float64, len(corpus))
	for i, doc := range corpus {
		rows[i] = v.Transform(doc)
	}
	return rows
}

// Terms returns the vocabulary terms in column order.
func (v *Vectorizer) Terms() []string {
	return append([]string(nil), v.terms...)
}

// Len returns the vocabulary size.
func (v *Vectorizer) Len() int { return len(v.terms) }

// termsOf tokenizes a document and expands it into n-gram terms.
// Stopwords are removed before n-grams are formed, matching the vocabulary
// definition: terms are stopword-filtered unigrams/bigrams.
func (v *Vectorizer) termsOf(text string) []string {
	raw := tokenSplitRE.Split(strings.ToLower(text), -1)
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		if w == "" {
			continue
		}
		if _, stopped := v.stop[w]; stopped {
			continue
		}
		words = append(words, w)
	}

	terms := make([]string, 0, len(words)*(v.ngramMax-v.ngramMin+1))
	for n := v.ngramMin; n <= v.ngramMax; n++ {
		for i := 0; i+n <= len(words); i++ {
			terms = append(terms, strings.Join(words[i:i+n], " "))
		}
	}
	return terms
}
