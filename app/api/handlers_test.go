package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"intellidocs/model"
	"intellidocs/obs"
	"intellidocs/store"
	"intellidocs/types"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app    *fiber.App
	docs   *store.DocumentStore
	vstore *store.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	embedder := model.NewHashedEmbedder(384)
	docs := store.NewDocumentStore()
	vstore := store.NewMemoryStore(embedder)
	history := store.NewQAHistory(0)
	events := obs.NewRecorder(filepath.Join(t.TempDir(), "events.jsonl"))
	cfg := types.Config{
		UploadDir:    t.TempDir(),
		ChunkSize:    model.DefaultChunkSize,
		ChunkOverlap: model.DefaultChunkOverlap,
		SummaryWords: 40,
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	documentHandler := NewDocumentHandler(docs, vstore, embedder, events, cfg)
	qaHandler := NewQAHandler(vstore, history, events)
	mcpHandler := NewMCPHandler(vstore)

	app.Post("/api/v1/documents", documentHandler.HandleUpload)
	app.Get("/api/v1/documents/:id/summary", documentHandler.HandleGetSummary)
	app.Post("/api/v1/documents/:id/summary", documentHandler.HandleSaveSummary)
	app.Post("/api/v1/documents/:id/summary/validate", documentHandler.HandleValidateSummary)
	app.Get("/api/v1/documents/:id/summary/versions", documentHandler.HandleVersions)
	app.Post("/api/v1/documents/:id/summary/rollback", documentHandler.HandleRollback)
	app.Get("/api/v1/documents/:id/export/summary.md", documentHandler.HandleExportMarkdown)
	app.Get("/api/v1/documents/:id/export/entities.json", documentHandler.HandleExportEntities)
	app.Post("/api/v1/qa", qaHandler.HandleQA)
	app.Get("/api/v1/qa/history", qaHandler.HandleHistory)
	app.Get("/mcp/search", mcpHandler.HandleSearch)

	return &testEnv{app: app, docs: docs, vstore: vstore}
}

func jsonReq(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestUploadIngestsDocument(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "facts.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("Paris is the capital of France. It has a population of 2 million. The Seine flows through the city."))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created types.DocumentCreateResponse
	decodeBody(t, resp, &created)
	assert.Equal(t, "ready", created.Status)
	assert.Equal(t, "facts.txt", created.Filename)
	require.NotEmpty(t, created.DocumentID)

	// summary version was pushed during ingest
	doc, err := env.docs.Get(created.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusReady, doc.Status)
	require.Len(t, doc.Versions, 1)
	assert.Equal(t, "ingest_summary", doc.Versions[0].Note)

	// chunks are searchable
	results, err := env.vstore.Search(context.Background(), "capital of France", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, created.DocumentID, results[0].DocID)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, _ := writer.CreateFormFile("file", "sheet.xlsx")
	part.Write([]byte("data"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestGetSummaryNotFound(t *testing.T) {
	env := newTestEnv(t)
	resp, err := env.app.Test(jsonReq(http.MethodGet, "/api/v1/documents/nope/summary", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body types.SummaryResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "not_found", body.Status)
}

func TestSaveSummaryAndVersions(t *testing.T) {
	env := newTestEnv(t)
	id := env.docs.Add("a.txt", "/tmp/a.txt")

	resp, err := env.app.Test(jsonReq(http.MethodPost, "/api/v1/documents/"+id+"/summary",
		types.SummarySaveRequest{Summary: strings.Repeat("word ", 40) + "end."}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = env.app.Test(jsonReq(http.MethodGet, "/api/v1/documents/"+id+"/summary/versions", nil), -1)
	require.NoError(t, err)
	var versions []types.VersionItem
	decodeBody(t, resp, &versions)
	require.Len(t, versions, 1)
	assert.Equal(t, "manual_save", versions[0].Note)
}

func TestSaveSummaryValidationError(t *testing.T) {
	env := newTestEnv(t)
	id := env.docs.Add("a.txt", "/tmp/a.txt")

	resp, err := env.app.Test(jsonReq(http.MethodPost, "/api/v1/documents/"+id+"/summary",
		map[string]string{"summary": ""}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRollbackEndpoint(t *testing.T) {
	env := newTestEnv(t)
	id := env.docs.Add("a.txt", "/tmp/a.txt")
	_, err := env.docs.PushSummaryVersion(id, "v0", "ingest_summary", types.ValidationReport{})
	require.NoError(t, err)
	_, err = env.docs.PushSummaryVersion(id, "v1", "manual_save", types.ValidationReport{})
	require.NoError(t, err)

	resp, err := env.app.Test(jsonReq(http.MethodPost, "/api/v1/documents/"+id+"/summary/rollback",
		types.RollbackRequest{VersionIndex: 0}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	versions, err := env.docs.Versions(id)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, "v0", versions[2].Content)

	resp, err = env.app.Test(jsonReq(http.MethodPost, "/api/v1/documents/"+id+"/summary/rollback",
		types.RollbackRequest{VersionIndex: 9}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidateSummaryEndpoint(t *testing.T) {
	env := newTestEnv(t)
	id := env.docs.Add("a.txt", "/tmp/a.txt")
	_, err := env.docs.PushSummaryVersion(id, strings.Repeat("word ", 40)+"end.", "ingest_summary", types.ValidationReport{})
	require.NoError(t, err)

	resp, err := env.app.Test(jsonReq(http.MethodPost, "/api/v1/documents/"+id+"/summary/validate", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		OK         bool                   `json:"ok"`
		Validation types.ValidationReport `json:"validation"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.OK)
	assert.Equal(t, 41, body.Validation.WordCount)

	// no new version was pushed
	versions, err := env.docs.Versions(id)
	require.NoError(t, err)
	assert.Len(t, versions, 1)

	resp, err = env.app.Test(jsonReq(http.MethodPost, "/api/v1/documents/missing/summary/validate", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExportEntitiesJSON(t *testing.T) {
	env := newTestEnv(t)
	id := env.docs.Add("a.txt", "/tmp/a.txt")
	_, err := env.docs.PushSummaryVersion(id,
		"Contract signed by Anna Lee on 2024-03-15.", "ingest_summary", types.ValidationReport{})
	require.NoError(t, err)

	resp, err := env.app.Test(jsonReq(http.MethodGet, "/api/v1/documents/"+id+"/export/entities.json", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ents map[string][]string
	decodeBody(t, resp, &ents)
	assert.Contains(t, ents["names"], "Anna Lee")
	assert.Contains(t, ents["dates"], "2024-03-15")

	resp, err = env.app.Test(jsonReq(http.MethodGet, "/api/v1/documents/missing/export/entities.json", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMCPSearch(t *testing.T) {
	env := newTestEnv(t)
	long := "Paris is the capital of France. " + strings.Repeat("More trailing detail about the city. ", 20)
	require.NoError(t, env.vstore.Upsert(context.Background(), "doc1", []string{long}))

	resp, err := env.app.Test(jsonReq(http.MethodGet, "/mcp/search?q=capital+of+France&k=3", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results []types.MCPSearchResult `json:"results"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "doc1", body.Results[0].DocID)
	assert.Equal(t, 0, body.Results[0].ChunkIdx)
	assert.LessOrEqual(t, len([]rune(body.Results[0].Snippet)), 300)
	assert.Contains(t, body.Results[0].Snippet, "Paris")

	// q is required
	resp, err = env.app.Test(jsonReq(http.MethodGet, "/mcp/search", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQAEndpoint(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.vstore.Upsert(context.Background(), "doc1",
		[]string{"Paris is the capital of France.", "It has a population of 2 million."}))

	resp, err := env.app.Test(jsonReq(http.MethodPost, "/api/v1/qa",
		types.QARequest{Question: "What is the capital of France?"}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body types.QAResponse
	decodeBody(t, resp, &body)
	assert.Contains(t, body.Answer, "Paris")
	require.NotEmpty(t, body.Sources)
	assert.Equal(t, "doc1:chunk0", body.Sources[0])
	assert.True(t, body.Validation.OK)

	// the exchange is recorded in history
	resp, err = env.app.Test(jsonReq(http.MethodGet, "/api/v1/qa/history?limit=5", nil), -1)
	require.NoError(t, err)
	var history struct {
		Items []types.QARecord `json:"items"`
	}
	decodeBody(t, resp, &history)
	require.Len(t, history.Items, 1)
	assert.Equal(t, "What is the capital of France?", history.Items[0].Question)
}

func TestQAValidation(t *testing.T) {
	env := newTestEnv(t)
	resp, err := env.app.Test(jsonReq(http.MethodPost, "/api/v1/qa", map[string]string{}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestExportMarkdown(t *testing.T) {
	env := newTestEnv(t)
	id := env.docs.Add("a.txt", "/tmp/a.txt")
	_, err := env.docs.PushSummaryVersion(id, "# Summary body", "ingest_summary", types.ValidationReport{})
	require.NoError(t, err)

	resp, err := env.app.Test(jsonReq(http.MethodGet, "/api/v1/documents/"+id+"/export/summary.md", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "# Summary body", string(data))

	resp, err = env.app.Test(jsonReq(http.MethodGet, "/api/v1/documents/missing/export/summary.md", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
