package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/keepsake/internal/entities"
	"github.com/avolkov/keepsake/internal/importers"
)

// stubImporter returns a canned result or error.
type stubImporter struct {
	result importers.ImportResult
	err    error

	gotSource entities.SourceType
	gotRaw    []byte
	gotOpts   importers.Options
}

func (s *stubImporter) ImportDiff(ctx context.Context, source entities.SourceType, raw []byte, opts importers.Options) (importers.ImportResult, error) {
	s.gotSource = source
	s.gotRaw = raw
	s.gotOpts = opts
	return s.result, s.err
}

type stubRecorder struct {
	runs []entities.ImportRun
}

func (s *stubRecorder) SaveImportRun(run *entities.ImportRun) error {
	s.runs = append(s.runs, *run)
	return nil
}

func archiveRequest(t *testing.T, url, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("archive", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest("POST", url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func importTestRouter(importer ArchiveImporter, recorder ImportRunRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	controller := NewImportController(importer, recorder, nil)
	router.POST("/api/import/:source", controller.Import)
	return router
}

func TestImportController_Success(t *testing.T) {
	importer := &stubImporter{
		result: importers.ImportResult{
			Success:    true,
			SourceType: entities.SourceMastodon,
			Accepted:   12,
			Skipped:    3,
			Message:    "imported 12 mastodon posts, skipped 3 duplicates",
		},
	}
	recorder := &stubRecorder{}
	router := importTestRouter(importer, recorder)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, archiveRequest(t, "/api/import/mastodon", "outbox.json", []byte(`{}`)))

	assert.Equal(t, http.StatusOK, w.Code)

	var response ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "mastodon", response.Source)
	assert.Equal(t, 12, response.Accepted)
	assert.Equal(t, 3, response.Skipped)

	assert.Equal(t, entities.SourceMastodon, importer.gotSource)
	assert.Equal(t, []byte(`{}`), importer.gotRaw)

	require.Len(t, recorder.runs, 1)
	assert.Equal(t, "outbox.json", recorder.runs[0].FileName)
	assert.True(t, recorder.runs[0].Success)
	assert.Equal(t, 12, recorder.runs[0].Accepted)
}

func TestImportController_UnknownSource(t *testing.T) {
	importer := &stubImporter{}
	router := importTestRouter(importer, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, archiveRequest(t, "/api/import/myspace", "export.zip", []byte("x")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, importer.gotRaw)
}

func TestImportController_MissingFile(t *testing.T) {
	router := importTestRouter(&stubImporter{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/import/twitter", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response.Error, "not provided")
}

func TestImportController_FormatError(t *testing.T) {
	importer := &stubImporter{
		err: &importers.FormatError{Source: entities.SourceTwitter, Err: errors.New("no parseable tweet array literal found")},
	}
	recorder := &stubRecorder{}
	router := importTestRouter(importer, recorder)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, archiveRequest(t, "/api/import/twitter", "tweets.js", []byte("garbage")))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Success)
	assert.Contains(t, response.Error, "unrecognized twitter archive")

	// Failed imports are audited too.
	require.Len(t, recorder.runs, 1)
	assert.False(t, recorder.runs[0].Success)
}

func TestImportController_ResolvesPerSourceIdentity(t *testing.T) {
	importer := &stubImporter{result: importers.ImportResult{Success: true}}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	resolve := func(source entities.SourceType) importers.Options {
		switch source {
		case entities.SourceTwitter:
			return importers.Options{OwnerHandle: "alice"}
		case entities.SourceBluesky:
			return importers.Options{OwnerHandle: "alice.bsky.social", OwnerDID: "did:plc:abc123"}
		}
		return importers.Options{}
	}
	controller := NewImportController(importer, nil, resolve)
	router.POST("/api/import/:source", controller.Import)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, archiveRequest(t, "/api/import/twitter", "tweets.js", []byte("x")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", importer.gotOpts.OwnerHandle)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, archiveRequest(t, "/api/import/bluesky", "repo.car", []byte("x")))
	assert.Equal(t, "alice.bsky.social", importer.gotOpts.OwnerHandle)
	assert.Equal(t, "did:plc:abc123", importer.gotOpts.OwnerDID)
}

func TestImportController_ResourceExhausted(t *testing.T) {
	importer := &stubImporter{
		result: importers.ImportResult{Accepted: 1000},
		err:    &importers.ResourceExhaustedError{Processed: 1000},
	}
	router := importTestRouter(importer, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, archiveRequest(t, "/api/import/bluesky", "repo.car", []byte("x")))

	assert.Equal(t, http.StatusInsufficientStorage, w.Code)

	var response ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	// Partial progress before the abort is reported back.
	assert.Equal(t, 1000, response.Accepted)
}
