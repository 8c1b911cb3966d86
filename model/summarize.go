package model

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	DefaultSummaryWords = 350
	maxSummaryInput     = 50000
)

var wordPattern = regexp.MustCompile(`\w+`)

// CountWords counts word tokens the same way the validators do.
func CountWords(text string) int {
	return len(wordPattern.FindAllString(text, -1))
}

// Summarizer builds diversity-aware extractive summaries with MMR selection.
type Summarizer struct {
	embedder *HashedEmbedder
	lambda   float64
}

func NewSummarizer(embedder *HashedEmbedder) *Summarizer {
	return &Summarizer{
		embedder: embedder,
		lambda:   DefaultMMRLambda,
	}
}

// Summarize joins the document chunks, selects diverse sentences via MMR
// until targetWords is reached, and reassembles them in source order. If the
// selection falls short, remaining sentences are appended in source order;
// the result is finally trimmed to ~1.15x the target word count.
func (s *Summarizer) Summarize(chunks []string, targetWords int) string {
	if targetWords <= 0 {
		targetWords = DefaultSummaryWords
	}
	text := strings.Join(chunks, "\n")
	if len(text) > maxSummaryInput {
		if runes := []rune(text); len(runes) > maxSummaryInput {
			text = string(runes[:maxSummaryInput])
		}
	}

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		if runes := []rune(text); len(runes) > 200 {
			return string(runes[:200])
		}
		return text
	}

	// Over-select so padding below rarely kicks in, then keep adding picks
	// until the word target is met or candidates run out.
	selected := s.selectForTarget(sentences, targetWords)

	inSummary := make(map[int]struct{}, len(selected))
	parts := make([]string, 0, len(selected))
	for _, idx := range selected {
		inSummary[idx] = struct{}{}
		parts = append(parts, sentences[idx])
	}
	result := strings.Join(parts, " ")

	// Still short: append unselected sentences in original order.
	for i := 0; CountWords(result) < targetWords && i < len(sentences); i++ {
		if _, ok := inSummary[i]; ok {
			continue
		}
		if result == "" {
			result = sentences[i]
		} else {
			result += " " + sentences[i]
		}
		inSummary[i] = struct{}{}
	}

	ceiling := int(math.Ceil(float64(targetWords) * 1.15))
	words := strings.Fields(result)
	if len(words) > ceiling {
		result = strings.Join(words[:ceiling], " ")
	}
	return result
}

// selectForTarget walks the MMR pick order, stopping once the accumulated
// word count reaches targetWords, and returns the picks in source order.
func (s *Summarizer) selectForTarget(sentences []string, targetWords int) []int {
	order := mmrOrder(s.embedder, sentences, len(sentences), s.lambda)
	total := 0
	selected := make([]int, 0, len(order))
	for _, idx := range order {
		selected = append(selected, idx)
		total += CountWords(sentences[idx])
		if total >= targetWords {
			break
		}
	}
	sort.Ints(selected)
	return selected
}
