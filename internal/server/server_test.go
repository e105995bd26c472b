package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-path/internal/catalog"
	"github.com/jonathan/career-path/internal/embedding"
	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/index"
	"github.com/jonathan/career-path/internal/ingest"
	"github.com/jonathan/career-path/internal/llm"
	"github.com/jonathan/career-path/internal/llm/llmtest"
	"github.com/jonathan/career-path/internal/pdftext/pdftest"
	"github.com/jonathan/career-path/internal/rag"
	"github.com/jonathan/career-path/internal/resume"
	"github.com/jonathan/career-path/internal/roadmap"
	"github.com/jonathan/career-path/internal/session"
	"github.com/jonathan/career-path/internal/types"
)

const profileJSON = `{"name": "John Doe", "email": "john.doe@example.com", "phone": "555-0100",
 "skills": ["Python", "SQL"], "education": [], "experience": []}`

const roadmapMarkdown = "# Roadmap to Data Scientist\n\n**Recommended Courses**\n\n**Mini-Quiz**"

// scripted answers by prompt type
func scripted(prompt string, _ llm.Options) (string, error) {
	switch {
	case strings.Contains(prompt, "résumé parser"):
		return profileJSON, nil
	case strings.Contains(prompt, "career counselor"):
		return "You could become a Data Scientist.", nil
	default:
		return roadmapMarkdown, nil
	}
}

type testServer struct {
	*Server
	fake *llmtest.Fake
}

func newTestServer(t *testing.T, rps float64) *testServer {
	t.Helper()
	fake := &llmtest.Fake{CompleteFunc: scripted}

	engine := embedding.NewEngine(fake, embedding.WithRetryDelay(0))
	store := index.NewMemoryStore()
	_, err := ingest.New(engine, store).Run(context.Background(), catalog.Default())
	require.NoError(t, err)

	pipeline := rag.NewPipeline(engine, store, fake, 0)
	manager := session.NewManager(session.Deps{
		Parser:  resume.NewParser(fake),
		RAG:     pipeline,
		Roadmap: roadmap.NewEngine(fake, 0),
	}, 0)

	s, err := New(Config{Sessions: manager, Retriever: pipeline, RateLimitRPS: rps, RateLimitBurst: 100, MaxUploadBytes: 64 << 10})
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	return &testServer{Server: s, fake: fake}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createSession(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, session.StateEmpty, snap.State)
	return snap.ID
}

func (ts *testServer) upload(t *testing.T, id string) *httptest.ResponseRecorder {
	t.Helper()
	pdf := pdftest.Build("John Doe\njohn.doe@example.com\nSkills: Python, SQL")
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/resume", bytes.NewReader(pdf))
	req.Header.Set("Content-Type", "application/pdf")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t, 0)
	rec := ts.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, 0)
	id := ts.createSession(t)

	rec := ts.do(t, http.MethodGet, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeError(t, rec)
	assert.True(t, strings.HasPrefix(resp.Error, "Error:"))
	assert.Equal(t, errs.KindNotFound, resp.Kind)
}

func TestFullConversation(t *testing.T) {
	ts := newTestServer(t, 0)
	id := ts.createSession(t)

	rec := ts.upload(t, id)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var uploaded ProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.Equal(t, session.StateProfiled, uploaded.State)
	assert.Equal(t, "John Doe", uploaded.Profile.Name)
	assert.Equal(t, []string{"Python", "SQL"}, uploaded.Profile.Skills)

	rec = ts.do(t, http.MethodPost, "/sessions/"+id+"/ask", AskRequest{Question: "I know Python and want to analyze data."})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var asked AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &asked))
	assert.Equal(t, "You could become a Data Scientist.", asked.Reply)
	require.Len(t, asked.Messages, 2)
	assert.Equal(t, types.RoleUser, asked.Messages[0].Role)

	rec = ts.do(t, http.MethodPost, "/sessions/"+id+"/roadmap", RoadmapRequest{TargetRole: "Data Scientist"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rm RoadmapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rm))
	assert.Equal(t, roadmapMarkdown, rm.Roadmap)
	assert.Equal(t, session.StateProfiledWithRoadmap, rm.State)
	assert.Contains(t, ts.fake.LastPrompt(), "Python, SQL")

	rec = ts.do(t, http.MethodGet, "/sessions/"+id+"/roadmap", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, roadmapMarkdown, rec.Body.String())

	rec = ts.do(t, http.MethodDelete, "/sessions/"+id+"/messages", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, "/sessions/"+id+"/messages", nil)
	assert.JSONEq(t, `{"messages": []}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/sessions/"+id+"/profile", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoadmapWithoutProfile(t *testing.T) {
	ts := newTestServer(t, 0)
	id := ts.createSession(t)

	rec := ts.do(t, http.MethodPost, "/sessions/"+id+"/roadmap", RoadmapRequest{TargetRole: "Data Scientist"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, errs.KindPrecondition, resp.Kind)
	assert.True(t, strings.HasPrefix(resp.Error, "Error:"))
	assert.Empty(t, ts.fake.Prompts())

	rec = ts.do(t, http.MethodGet, "/sessions/"+id+"/roadmap", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodGet, "/sessions/"+id+"/profile", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoadmapStream(t *testing.T) {
	ts := newTestServer(t, 0)
	id := ts.createSession(t)
	require.Equal(t, http.StatusOK, ts.upload(t, id).Code)

	rec := ts.do(t, http.MethodPost, "/sessions/"+id+"/roadmap/stream", RoadmapRequest{TargetRole: "Data Scientist"})
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "event: status\n")
	assert.Contains(t, body, "event: roadmap\n")
	assert.Contains(t, body, "Mini-Quiz")
}

func TestRoadmapStream_Error(t *testing.T) {
	ts := newTestServer(t, 0)
	id := ts.createSession(t)

	rec := ts.do(t, http.MethodPost, "/sessions/"+id+"/roadmap/stream", RoadmapRequest{TargetRole: "Data Scientist"})
	body := rec.Body.String()
	assert.Contains(t, body, "event: error\n")
	assert.Contains(t, body, `"error":"Error: precondition failed`)
}

func TestAsk_UpstreamFailure(t *testing.T) {
	ts := newTestServer(t, 0)
	id := ts.createSession(t)
	ts.fake.CompleteFunc = nil
	ts.fake.CompleteErr = &errs.UpstreamError{Message: "quota exceeded"}

	rec := ts.do(t, http.MethodPost, "/sessions/"+id+"/ask", AskRequest{Question: "What does a DevOps engineer do?"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeError(t, rec)
	assert.True(t, strings.HasPrefix(resp.Error, "Error:"))

	// the failed exchange is still in the log
	rec = ts.do(t, http.MethodGet, "/sessions/"+id+"/messages", nil)
	assert.Contains(t, rec.Body.String(), "quota exceeded")
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t, 0)
	id := ts.createSession(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "empty question", method: http.MethodPost, path: "/sessions/" + id + "/ask", body: AskRequest{}, want: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, path: "/sessions/" + id + "/ask", body: map[string]string{"q": "hi"}, want: http.StatusBadRequest},
		{name: "missing role", method: http.MethodPost, path: "/sessions/" + id + "/roadmap", body: RoadmapRequest{}, want: http.StatusBadRequest},
		{name: "k too large", method: http.MethodPost, path: "/retrieve", body: RetrieveRequest{Query: "python", K: 50}, want: http.StatusBadRequest},
		{name: "blank query", method: http.MethodPost, path: "/retrieve", body: RetrieveRequest{Query: "   "}, want: http.StatusBadRequest},
		{name: "unknown session", method: http.MethodPost, path: "/sessions/00000000-0000-0000-0000-000000000000/ask", body: AskRequest{Question: "hi"}, want: http.StatusNotFound},
		{name: "malformed session", method: http.MethodGet, path: "/sessions/not-a-uuid", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.True(t, strings.HasPrefix(decodeError(t, rec).Error, "Error:"))
		})
	}
}

func TestUpload_Multipart(t *testing.T) {
	ts := newTestServer(t, 0)
	id := ts.createSession(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "resume.pdf")
	require.NoError(t, err)
	_, err = part.Write(pdftest.Build("Jane Roe\nSkills: Go"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/resume", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUpload_Rejected(t *testing.T) {
	ts := newTestServer(t, 0)
	id := ts.createSession(t)

	tests := []struct {
		name string
		body []byte
	}{
		{name: "empty", body: nil},
		{name: "too large", body: bytes.Repeat([]byte("x"), 65<<10)},
		{name: "not a pdf", body: []byte("plain text, not a PDF")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/resume", bytes.NewReader(tt.body))
			rec := httptest.NewRecorder()
			ts.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, errs.KindInput, decodeError(t, rec).Kind)
		})
	}

	rec := ts.do(t, http.MethodGet, "/sessions/"+id, nil)
	assert.Contains(t, rec.Body.String(), `"state":"empty"`)
}

func TestRetrieve(t *testing.T) {
	ts := newTestServer(t, 0)

	rec := ts.do(t, http.MethodPost, "/retrieve", RetrieveRequest{Query: "I know Python and want to analyze data.", K: 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result types.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Results, 3)
	assert.Equal(t, "Data Scientist", result.Results[0].Metadata[types.MetaRole])
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, 1)

	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = ts.do(t, http.MethodPost, "/retrieve", RetrieveRequest{Query: "python"})
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Equal(t, "5", last.Header().Get("X-RateLimit-Limit"))

	// health is never limited
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health", nil).Code)
}

func TestRateLimit_RoadmapStreamSharesRoadmapBucket(t *testing.T) {
	ts := newTestServer(t, 1)
	id := ts.createSession(t)

	req := RoadmapRequest{TargetRole: "Data Scientist"}
	assert.NotEqual(t, http.StatusTooManyRequests, ts.do(t, http.MethodPost, "/sessions/"+id+"/roadmap", req).Code)
	assert.NotEqual(t, http.StatusTooManyRequests, ts.do(t, http.MethodPost, "/sessions/"+id+"/roadmap/stream", req).Code)

	rec := ts.do(t, http.MethodPost, "/sessions/"+id+"/roadmap/stream", req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, 0)
	rec := ts.do(t, http.MethodOptions, "/sessions", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}
