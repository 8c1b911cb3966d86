package agent

import (
	"context"
	"fmt"
	"strings"

	"intellidocs/model"
	"intellidocs/store"
	"intellidocs/types"

	"github.com/pkoukk/tiktoken-go"
)

const (
	answerWordCap      = 200
	contextTokenBudget = 2048
	answerContexts     = 3
)

// Answerer produces grounded extractive answers from retrieved chunks.
// There is no generative model on this path; the answer is stitched from the
// most relevant passages.
type Answerer struct {
	vstore store.VectorStorer
}

func NewAnswerer(vstore store.VectorStorer) *Answerer {
	return &Answerer{vstore: vstore}
}

type Answer struct {
	Text     string
	Sources  []string
	Contexts []string
}

func (a *Answerer) Answer(ctx context.Context, question string, topK int) (*Answer, error) {
	results, err := a.vstore.Search(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	sources := make([]string, 0, len(results))
	contexts := make([]string, 0, len(results))
	for _, r := range results {
		sources = append(sources, fmt.Sprintf("%s:chunk%d", r.DocID, r.ChunkIdx))
		contexts = append(contexts, r.Content)
	}
	if len(contexts) > answerContexts {
		contexts = contexts[:answerContexts]
	}
	contexts = capContextTokens(contexts, contextTokenBudget)

	return &Answer{
		Text:     stitchAnswer(contexts),
		Sources:  sources,
		Contexts: contexts,
	}, nil
}

// stitchAnswer concatenates the top contexts and trims to a readable length.
func stitchAnswer(contexts []string) string {
	joined := strings.Join(contexts, "\n")
	words := strings.Fields(joined)
	if len(words) > answerWordCap {
		joined = strings.Join(words[:answerWordCap], " ") + " ..."
	}
	if strings.TrimSpace(joined) == "" {
		return "No information for this request."
	}
	return fmt.Sprintf("Based on the most relevant passages:\n\n%s", joined)
}

// capContextTokens drops trailing contexts once the token budget is spent.
// When the tokenizer is unavailable the contexts pass through uncapped;
// the budget is a safeguard, not a correctness requirement.
func capContextTokens(contexts []string, budget int) []string {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return contexts
	}
	total := 0
	for i, c := range contexts {
		total += len(enc.Encode(c, nil, nil))
		if total > budget {
			return contexts[:i]
		}
	}
	return contexts
}

// CountTokens reports the token length of data under the same encoding used
// for the context budget.
func CountTokens(data string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(data, nil, nil)), nil
}

// Summarize builds the extractive summary for a document's chunks.
func Summarize(embedder *model.HashedEmbedder, chunks []string, targetWords int) string {
	return model.NewSummarizer(embedder).Summarize(chunks, targetWords)
}

// ValidationFor wraps ValidateSummary with the 0.6x..1.6x word window the
// service applies around a target length.
func ValidationFor(summary string, targetWords int) types.ValidationReport {
	return model.ValidateSummary(summary, int(float64(targetWords)*0.6), int(float64(targetWords)*1.6))
}
