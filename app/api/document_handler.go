package api

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"intellidocs/app/agent"
	"intellidocs/model"
	"intellidocs/obs"
	"intellidocs/store"
	"intellidocs/types"

	"github.com/gofiber/fiber/v2"
)

type DocumentHandler struct {
	docs     *store.DocumentStore
	vstore   store.VectorStorer
	embedder *model.HashedEmbedder
	events   *obs.Recorder
	cfg      types.Config
}

func NewDocumentHandler(docs *store.DocumentStore, vstore store.VectorStorer, embedder *model.HashedEmbedder, events *obs.Recorder, cfg types.Config) *DocumentHandler {
	return &DocumentHandler{
		docs:     docs,
		vstore:   vstore,
		embedder: embedder,
		events:   events,
		cfg:      cfg,
	}
}

// HandleUpload saves the uploaded file and runs the ingest pipeline:
// extract, chunk, index, summarize, push the first summary version. Pipeline
// failures mark the document as error but still answer 200 with the status.
func (h *DocumentHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}
	if !model.IsSupported(fileHeader.Filename) {
		return ErrUnsupportedType(filepath.Ext(fileHeader.Filename))
	}

	path := filepath.Join(h.cfg.UploadDir, filepath.Base(fileHeader.Filename))
	if err := c.SaveFile(fileHeader, path); err != nil {
		return err
	}

	docID := h.docs.Add(fileHeader.Filename, path)
	status := types.StatusReady

	if err := h.ingest(c, docID, path, h.cfg.SummaryWords, "ingest_summary"); err != nil {
		h.docs.SetError(docID, fmt.Sprintf("Processing error: %v", err))
		h.events.Record("error", fiber.Map{"doc_id": docID, "filename": fileHeader.Filename, "error": err.Error()})
		status = types.StatusError
	} else {
		h.events.Record("ingest", fiber.Map{"doc_id": docID, "filename": fileHeader.Filename})
	}

	return c.JSON(types.DocumentCreateResponse{
		DocumentID: docID,
		Filename:   fileHeader.Filename,
		Status:     string(status),
	})
}

func (h *DocumentHandler) ingest(c *fiber.Ctx, docID, path string, targetWords int, note string) error {
	text, err := model.ExtractText(path)
	if err != nil {
		return err
	}
	chunks := model.ChunkText(text, h.cfg.ChunkSize, h.cfg.ChunkOverlap)
	if err := h.vstore.Upsert(c.Context(), docID, chunks); err != nil {
		return err
	}

	summary := agent.Summarize(h.embedder, chunks, targetWords)
	val := agent.ValidationFor(summary, targetWords)
	_, err = h.docs.PushSummaryVersion(docID, summary, note, val)
	return err
}

func (h *DocumentHandler) HandleGetSummary(c *fiber.Ctx) error {
	docID := c.Params("id")
	doc, err := h.docs.Get(docID)
	if err != nil {
		return c.JSON(types.SummaryResponse{DocumentID: docID, Status: "not_found"})
	}
	return c.JSON(types.SummaryResponse{
		DocumentID: docID,
		Status:     string(doc.Status),
		Summary:    doc.Summary,
	})
}

func (h *DocumentHandler) HandleSaveSummary(c *fiber.Ctx) error {
	docID := c.Params("id")
	var params types.SummarySaveRequest
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errs := types.Validate(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}

	val := agent.ValidationFor(params.Summary, h.cfg.SummaryWords)
	if _, err := h.docs.PushSummaryVersion(docID, params.Summary, "manual_save", val); err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			return ErrNotFound(docID, "document")
		}
		return err
	}
	h.events.Record("summary_save", fiber.Map{"doc_id": docID})
	return c.JSON(fiber.Map{"ok": true, "validation": val})
}

// HandleValidateSummary re-runs the summary validator against the current
// summary without pushing a new version.
func (h *DocumentHandler) HandleValidateSummary(c *fiber.Ctx) error {
	docID := c.Params("id")
	doc, err := h.docs.Get(docID)
	if err != nil || strings.TrimSpace(doc.Summary) == "" {
		return ErrNotFound(docID, "summary")
	}
	val := agent.ValidationFor(doc.Summary, h.cfg.SummaryWords)
	return c.JSON(fiber.Map{"ok": true, "validation": val})
}

// HandleSummarize re-extracts the stored file, rebuilds the index and pushes
// a regenerated summary version at the requested length.
func (h *DocumentHandler) HandleSummarize(c *fiber.Ctx) error {
	docID := c.Params("id")
	doc, err := h.docs.Get(docID)
	if err != nil {
		return ErrNotFound(docID, "document")
	}

	params := types.SummarizeRequest{TargetWords: h.cfg.SummaryWords}
	if len(c.Body()) > 0 {
		if c.BodyParser(&params) != nil {
			return ErrBadRequest()
		}
	}
	if errs := types.Validate(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}
	if params.TargetWords == 0 {
		params.TargetWords = h.cfg.SummaryWords
	}

	note := fmt.Sprintf("regen_%d", params.TargetWords)
	if err := h.ingest(c, docID, doc.Path, params.TargetWords, note); err != nil {
		h.events.Record("error", fiber.Map{"doc_id": docID, "error": err.Error()})
		return err
	}

	fresh, err := h.docs.Get(docID)
	if err != nil {
		return err
	}
	latest := fresh.Versions[len(fresh.Versions)-1]
	h.events.Record("summary_regen", fiber.Map{"doc_id": docID, "target_words": params.TargetWords})
	return c.JSON(fiber.Map{"ok": true, "summary": latest.Content, "validation": latest.Validation})
}

func (h *DocumentHandler) HandleVersions(c *fiber.Ctx) error {
	docID := c.Params("id")
	versions, err := h.docs.Versions(docID)
	if err != nil {
		return ErrNotFound(docID, "document")
	}
	items := make([]types.VersionItem, len(versions))
	for i, v := range versions {
		items[i] = types.VersionItem{
			Index:      i,
			CreatedAt:  v.CreatedAt,
			Note:       v.Note,
			WordCount:  v.Validation.WordCount,
			Validation: v.Validation,
		}
	}
	return c.JSON(items)
}

func (h *DocumentHandler) HandleRollback(c *fiber.Ctx) error {
	docID := c.Params("id")
	var params types.RollbackRequest
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errs := types.Validate(&params); len(errs) > 0 {
		return NewValidationError(errs)
	}

	if !h.docs.Rollback(docID, params.VersionIndex) {
		return ErrNotFound(params.VersionIndex, "document version")
	}
	h.events.Record("summary_rollback", fiber.Map{"doc_id": docID, "version_index": params.VersionIndex})
	return c.JSON(fiber.Map{"ok": true})
}

func (h *DocumentHandler) HandleEntities(c *fiber.Ctx) error {
	docID := c.Params("id")
	doc, err := h.docs.Get(docID)
	if err != nil || doc.Status != types.StatusReady || strings.TrimSpace(doc.Summary) == "" {
		return c.JSON(fiber.Map{"status": "pending", "entities": nil})
	}
	return c.JSON(fiber.Map{"status": "ready", "entities": model.ExtractEntities(doc.Summary)})
}

func (h *DocumentHandler) HandleExportEntities(c *fiber.Ctx) error {
	docID := c.Params("id")
	doc, err := h.docs.Get(docID)
	if err != nil || strings.TrimSpace(doc.Summary) == "" {
		return ErrNotFound(docID, "entities")
	}
	return c.JSON(model.ExtractEntities(doc.Summary))
}

func (h *DocumentHandler) HandleExportMarkdown(c *fiber.Ctx) error {
	docID := c.Params("id")
	doc, err := h.docs.Get(docID)
	if err != nil || doc.Status != types.StatusReady || doc.Summary == "" {
		return ErrNotFound(docID, "summary")
	}
	c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	return c.SendString(doc.Summary)
}
