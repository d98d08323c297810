package analyzer

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gonum.org/v1/gonum/stat"
)

// TextFeatures are the structural statistics of a text
type TextFeatures struct {
	WordCount         int
	SentenceCount     int
	AvgSentenceLength float64 // words per sentence

	SubstantiveSentenceCount int
	AvgSentenceChars         float64 // characters per substantive sentence

	WordFrequency        map[string]int
	RepeatedContentWords []string
}

const (
	// a content word is "repeated" when it occurs more than repeatMinCount
	// times and is longer than repeatMinLength runes
	repeatMinCount  = 5
	repeatMinLength = 4

	substantiveMinChars = 10
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// ExtractFeatures computes word and sentence statistics for text
func ExtractFeatures(text string) TextFeatures {
	f := TextFeatures{WordFrequency: map[string]int{}}

	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return f
	}
	f.WordCount = len(words)

	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if w != "" {
			f.WordFrequency[w]++
		}
	}

	var wordLengths, charLengths []float64
	for _, s := range sentenceBoundary.Split(text, -1) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		wordLengths = append(wordLengths, float64(len(strings.Fields(s))))
		if n := utf8.RuneCountInString(s); n > substantiveMinChars {
			charLengths = append(charLengths, float64(n))
		}
	}
	f.SentenceCount = len(wordLengths)
	f.SubstantiveSentenceCount = len(charLengths)
	if len(wordLengths) > 0 {
		f.AvgSentenceLength = stat.Mean(wordLengths, nil)
	}
	if len(charLengths) > 0 {
		f.AvgSentenceChars = stat.Mean(charLengths, nil)
	}

	f.RepeatedContentWords = repeatedWords(f.WordFrequency)
	return f
}

// repeatedWords returns the repeated content words, most frequent first
func repeatedWords(freq map[string]int) []string {
	var out []string
	for w, n := range freq {
		if n > repeatMinCount && utf8.RuneCountInString(w) > repeatMinLength {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if freq[out[i]] != freq[out[j]] {
			return freq[out[i]] > freq[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
