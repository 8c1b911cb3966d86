package api

import (
	"strings"

	"intellidocs/store"
	"intellidocs/types"

	"github.com/gofiber/fiber/v2"
)

const snippetMaxChars = 300

// MCPHandler exposes raw retrieval for tool-style integrations.
type MCPHandler struct {
	vstore store.VectorStorer
}

func NewMCPHandler(vstore store.VectorStorer) *MCPHandler {
	return &MCPHandler{vstore: vstore}
}

// HandleSearch runs a top-k similarity query and returns truncated snippets.
func (h *MCPHandler) HandleSearch(c *fiber.Ctx) error {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		return NewError(fiber.StatusBadRequest, "missing query parameter: q")
	}
	topK := c.QueryInt("k", 5)

	results, err := h.vstore.Search(c.Context(), query, topK)
	if err != nil {
		return err
	}

	items := make([]types.MCPSearchResult, len(results))
	for i, r := range results {
		items[i] = types.MCPSearchResult{
			DocID:    r.DocID,
			ChunkIdx: r.ChunkIdx,
			Score:    r.Score,
			Snippet:  snippet(r.Content, snippetMaxChars),
		}
	}
	return c.JSON(fiber.Map{"results": items})
}

func snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}
