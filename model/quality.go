package model

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"intellidocs/types"
)

// ValidateSummary scores a summary against a word-count window. It never
// fails: problems lower the score and are reported as messages.
func ValidateSummary(summary string, minWords, maxWords int) types.ValidationReport {
	var msgs []string
	wc := CountWords(summary)
	if wc < minWords {
		msgs = append(msgs, fmt.Sprintf("Summary too short: %d words (min %d).", wc, minWords))
	}
	if wc > maxWords {
		msgs = append(msgs, fmt.Sprintf("Summary too long: %d words (max %d).", wc, maxWords))
	}
	if trimmed := strings.TrimSpace(summary); trimmed != "" {
		if last, _ := utf8.DecodeLastRuneInString(trimmed); !strings.ContainsRune(".!?", last) {
			msgs = append(msgs, "Summary should end with a sentence terminator.")
		}
	}

	score := 1.0
	if wc < minWords {
		score -= 0.3
	}
	if wc > maxWords {
		score -= 0.2
	}
	if strings.Contains(summary, "  ") {
		score -= 0.05
	}
	if strings.TrimSpace(summary) == "" {
		score = 0.0
		msgs = append(msgs, "Empty summary.")
	}

	return types.ValidationReport{
		OK:        score >= 0.6 && wc >= minWords,
		Score:     round2(clamp01(score)),
		Messages:  msgs,
		WordCount: wc,
	}
}

// ValidateAnswer scores an answer by its token overlap with the retrieved
// contexts. Low overlap hints the answer is not grounded.
func ValidateAnswer(answer string, contexts []string) types.ValidationReport {
	var msgs []string
	wc := CountWords(answer)
	if wc == 0 {
		msgs = append(msgs, "Empty answer.")
		return types.ValidationReport{OK: false, Score: 0.0, Messages: msgs, WordCount: wc}
	}

	ctxWords := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(strings.ToLower(strings.Join(contexts, " ")), -1) {
		ctxWords[w] = struct{}{}
	}
	ansWords := wordPattern.FindAllString(strings.ToLower(answer), -1)
	overlap := 0
	for _, w := range ansWords {
		if _, ok := ctxWords[w]; ok {
			overlap++
		}
	}
	ratio := float64(overlap) / math.Max(1, float64(len(ansWords)))
	if ratio < 0.15 {
		msgs = append(msgs, "Low overlap with retrieved context; answer may be hallucinated.")
	}

	score := 0.6 + ratio*0.4
	return types.ValidationReport{
		OK:           score >= 0.7,
		Score:        round2(score),
		Messages:     msgs,
		WordCount:    wc,
		OverlapRatio: round2(ratio),
	}
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
