package model

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultMMRLambda weights relevance against redundancy during selection.
const DefaultMMRLambda = 0.72

var sentenceSplitter = regexp.MustCompile(`[.!?]+\s+`)

// SplitSentences breaks text into trimmed sentences, splitting after a run
// of terminators followed by whitespace so "!!"/"..." stay with their
// sentence. A trailing fragment without a terminator is kept as its own
// sentence.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var sentences []string
	start := 0
	for _, loc := range sentenceSplitter.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// SelectMMR picks up to k sentences by Maximal Marginal Relevance: each step
// takes the unselected candidate maximizing
//
//	lambda*relevance(i) - (1-lambda)*max dot(v_i, v_j) over selected j
//
// where relevance is the dot product with the centroid of all sentence
// vectors. Equal scores resolve to the lowest index so selection is
// deterministic. The returned indices are sorted back to source order.
func SelectMMR(embedder *HashedEmbedder, sentences []string, k int, lambda float64) []int {
	selected := mmrOrder(embedder, sentences, k, lambda)
	sort.Ints(selected)
	return selected
}

// mmrOrder returns the picked indices in selection order.
func mmrOrder(embedder *HashedEmbedder, sentences []string, k int, lambda float64) []int {
	if k <= 0 || len(sentences) == 0 {
		return nil
	}
	if lambda <= 0 || lambda > 1 {
		lambda = DefaultMMRLambda
	}
	if k > len(sentences) {
		k = len(sentences)
	}

	vecs := make([][]float32, len(sentences))
	for i, s := range sentences {
		vecs[i], _ = embedder.Embed(s)
	}

	dim := embedder.Dim()
	centroid := make([]float64, dim)
	for _, v := range vecs {
		for j, x := range v {
			centroid[j] += float64(x)
		}
	}
	for j := range centroid {
		centroid[j] /= float64(len(vecs))
	}

	relevance := make([]float64, len(vecs))
	for i, v := range vecs {
		var s float64
		for j, x := range v {
			s += float64(x) * centroid[j]
		}
		relevance[i] = s
	}

	// maxSim[i] tracks the highest similarity between candidate i and any
	// already selected sentence, updated incrementally per pick.
	maxSim := make([]float64, len(vecs))
	picked := make([]bool, len(vecs))
	selected := make([]int, 0, k)

	for len(selected) < k {
		best := -1
		bestScore := 0.0
		for i := range vecs {
			if picked[i] {
				continue
			}
			score := lambda*relevance[i] - (1-lambda)*maxSim[i]
			if best == -1 || score > bestScore {
				best = i
				bestScore = score
			}
		}
		if best == -1 {
			break
		}
		picked[best] = true
		selected = append(selected, best)
		for i := range vecs {
			if picked[i] {
				continue
			}
			if sim := dotF32(vecs[i], vecs[best]); sim > maxSim[i] {
				maxSim[i] = sim
			}
		}
	}

	return selected
}

func dotF32(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
