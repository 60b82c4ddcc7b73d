package summary

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// DefaultSentences is the summary length used by ExtractiveSummarizer when unset.
const DefaultSentences = 5

var sentenceEnd = regexp.MustCompile(`([.!?;])\s+`)

// minSentenceWords filters out headers and table fragments.
const minSentenceWords = 6

// stopwords are common Portuguese and English function words ignored when scoring.
var stopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`a o as os de da do das dos e é em no na nos nas um uma uns umas
por para com sem ao aos à às que se ou como mais menos seu sua seus suas ser foi são
pelo pela pelos pelas este esta estes estas esse essa isso não sobre entre até
the of and to in for on by with is are was be or as at an from that this it`) {
		stopwords[w] = true
	}
}

// ExtractiveSummarizer picks the highest-scoring sentences by word frequency. It works
// offline and is deterministic.
type ExtractiveSummarizer struct {
	Sentences int
}

func (e *ExtractiveSummarizer) Name() string { return "extractive" }

func (e *ExtractiveSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	res, err := e.SummarizeDocument(ctx, Subject{}, text)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (e *ExtractiveSummarizer) SummarizeDocument(ctx context.Context, _ Subject, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSummarizationUnavailable, err)
	}
	n := e.Sentences
	if n <= 0 {
		n = DefaultSentences
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return Result{}, fmt.Errorf("%w: no sentences in text", ErrSummarizationUnavailable)
	}

	freq := map[string]int{}
	for _, s := range sentences {
		for _, w := range words(s) {
			freq[w]++
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		ws := words(s)
		total := 0
		for _, w := range ws {
			total += freq[w]
		}
		score := 0.0
		if len(ws) > 0 {
			score = float64(total) / float64(len(ws))
		}
		ranked[i] = scored{idx: i, score: score}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	// restore document order
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].idx < ranked[j].idx })

	picked := make([]string, len(ranked))
	for i, r := range ranked {
		picked[i] = sentences[r.idx]
	}
	return Result{Text: strings.Join(picked, " "), KeyPoints: topTerms(freq, 5)}, nil
}

func splitSentences(text string) []string {
	flat := strings.Join(strings.Fields(text), " ")
	if flat == "" {
		return nil
	}
	parts := sentenceEnd.ReplaceAllString(flat, "$1\n")
	var out []string
	for _, s := range strings.Split(parts, "\n") {
		s = strings.TrimSpace(s)
		if len(strings.Fields(s)) >= minSentenceWords {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		// short documents: keep whatever there is
		out = append(out, flat)
	}
	return out
}

func words(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 2 && !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

func topTerms(freq map[string]int, n int) []string {
	terms := make([]string, 0, len(freq))
	for w := range freq {
		terms = append(terms, w)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}
