package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/session"
	"github.com/jonathan/career-path/internal/types"
)

const maxJSONBody = 1 << 20

// keepAliveEvery is how often the roadmap stream writes a comment while waiting.
var keepAliveEvery = 15 * time.Second

// AskRequest represents the request body for /sessions/{id}/ask
type AskRequest struct {
	Question string `json:"question" validate:"required"`
}

// AskResponse represents the response for /sessions/{id}/ask
type AskResponse struct {
	Reply    string          `json:"reply"`
	Messages []types.Message `json:"messages"`
}

// RoadmapRequest represents the request body for /sessions/{id}/roadmap
type RoadmapRequest struct {
	TargetRole string `json:"target_role" validate:"required"`
}

// RoadmapResponse represents the response for /sessions/{id}/roadmap
type RoadmapResponse struct {
	Roadmap string        `json:"roadmap"`
	State   session.State `json:"state"`
}

// ProfileResponse represents the response for résumé upload and profile reads
type ProfileResponse struct {
	State   session.State `json:"state"`
	Profile types.Profile `json:"profile"`
}

// RetrieveRequest represents the request body for /retrieve
type RetrieveRequest struct {
	Query string `json:"query" validate:"required"`
	K     int    `json:"k" validate:"omitempty,min=1,max=20"`
}

// decodeJSON reads and validates a JSON request body into dst.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &errs.InputError{Message: "invalid request body", Cause: err}
	}
	if err := s.validator.Struct(dst); err != nil {
		return extractValidationErrors(err)
	}
	return nil
}

// session resolves the {id} path value.
func (s *Server) session(r *http.Request) (*session.Session, error) {
	return s.sessions.Get(r.PathValue("id"))
}

// handleCreateSession starts an empty session
func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	log.Printf("[SERVER] Created session %s", sess.ID())
	s.jsonResponse(w, http.StatusCreated, sess.Snapshot())
}

// handleGetSession returns the full session state
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess.Snapshot())
}

// handleDeleteSession discards a session
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadResume accepts a raw PDF body or a multipart form with a "file" field
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	profile, err := sess.UploadResume(r.Context(), data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if profile.Degraded() {
		log.Printf("[SERVER] Session %s: profile degraded: %s", sess.ID(), profile.Error)
	}
	s.jsonResponse(w, http.StatusOK, ProfileResponse{State: sess.State(), Profile: profile})
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	var src io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			return nil, uploadError(err, s.maxUpload)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, &errs.InputError{Message: `multipart field "file" is required`, Cause: err}
		}
		defer file.Close()
		src = file
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, uploadError(err, s.maxUpload)
	}
	if len(data) == 0 {
		return nil, &errs.InputError{Message: "résumé upload is empty"}
	}
	return data, nil
}

func uploadError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &errs.InputError{Message: fmt.Sprintf("résumé exceeds %d bytes", limit)}
	}
	return &errs.InputError{Message: "could not read upload", Cause: err}
}

// handleGetProfile returns the current profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	profile, ok := sess.Profile()
	if !ok {
		s.writeError(w, &errs.NotFoundError{Resource: "profile", ID: sess.ID()})
		return
	}
	s.jsonResponse(w, http.StatusOK, ProfileResponse{State: sess.State(), Profile: profile})
}

// handleAsk answers a question inside a session
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req AskRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	reply, err := sess.Ask(r.Context(), req.Question)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, AskResponse{Reply: reply, Messages: sess.Messages()})
}

// handleRoadmap generates a roadmap toward the requested role
func (s *Server) handleRoadmap(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req RoadmapRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	markdown, err := sess.MakeRoadmap(r.Context(), req.TargetRole)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, RoadmapResponse{Roadmap: markdown, State: sess.State()})
}

// handleRoadmapStream generates a roadmap over Server-Sent Events so slow
// generations keep the connection alive.
func (s *Server) handleRoadmapStream(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req RoadmapRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, types.RenderReply("", err))
		return
	}
	if err := sse.WriteEvent("status", map[string]string{"state": "generating", "target_role": req.TargetRole}); err != nil {
		return
	}

	type result struct {
		markdown string
		err      error
	}
	done := make(chan result, 1)
	go func() {
		markdown, err := sess.MakeRoadmap(r.Context(), req.TargetRole)
		done <- result{markdown, err}
	}()

	ticker := time.NewTicker(keepAliveEvery)
	defer ticker.Stop()
	for {
		select {
		case res := <-done:
			if res.err != nil {
				sse.WriteError(res.markdown)
				return
			}
			sse.WriteEvent("roadmap", RoadmapResponse{Roadmap: res.markdown, State: sess.State()}) //nolint:errcheck
			return
		case <-ticker.C:
			if err := sse.WriteComment("generating"); err != nil {
				return
			}
		}
	}
}

// handleExportRoadmap downloads the last roadmap as a Markdown file
func (s *Server) handleExportRoadmap(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	markdown := sess.LastRoadmap()
	if markdown == "" {
		s.writeError(w, &errs.NotFoundError{Resource: "roadmap", ID: sess.ID()})
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="roadmap.md"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, markdown); err != nil {
		log.Printf("[SERVER] Error writing roadmap: %v", err)
	}
}

// handleListMessages returns the chat log
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"messages": sess.Messages()})
}

// handleClearMessages empties the chat log
func (s *Server) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess.ClearChat()
	w.WriteHeader(http.StatusNoContent)
}

// handleRetrieve runs a nearest-neighbour query against the career index
func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, &errs.InputError{Message: "query is empty"})
		return
	}

	result, err := s.retriever.Retrieve(r.Context(), req.Query, req.K)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}
