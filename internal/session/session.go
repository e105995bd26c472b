// Package session drives one user's conversation: résumé upload, questions and roadmaps.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/types"
)

// State of a session
type State string

// Session states
const (
	StateEmpty               State = "empty"
	StateProfiled            State = "profiled"
	StateProfiledWithRoadmap State = "profiled_with_roadmap"
)

// ResumeParser turns PDF bytes into a profile.
type ResumeParser interface {
	ParsePDF(ctx context.Context, data []byte) (types.Profile, error)
}

// Answerer answers a career question from retrieved context.
type Answerer interface {
	Answer(ctx context.Context, query string, k int) (string, error)
}

// RoadmapGenerator writes a learning roadmap.
type RoadmapGenerator interface {
	Generate(ctx context.Context, skills []string, targetRole string) (string, error)
}

// Deps are the shared components a session calls into.
type Deps struct {
	Parser  ResumeParser
	RAG     Answerer
	Roadmap RoadmapGenerator
	K       int // documents retrieved per question; 0 for the pipeline default
}

// Session owns a profile, a message log and the last roadmap. Operations that
// call the model are serialized: a new one waits for the previous one to finish.
type Session struct {
	id   string
	deps Deps

	turn chan struct{}

	mu          sync.RWMutex
	profile     *types.Profile
	messages    []types.Message
	lastRoadmap string
	createdAt   time.Time
	lastActive  time.Time
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID          string          `json:"id"`
	State       State           `json:"state"`
	Profile     *types.Profile  `json:"profile"`
	Messages    []types.Message `json:"messages"`
	LastRoadmap string          `json:"last_roadmap,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	LastActive  time.Time       `json:"last_active"`
}

// New creates an empty session.
func New(id string, deps Deps) *Session {
	now := time.Now()
	return &Session{
		id:         id,
		deps:       deps,
		turn:       make(chan struct{}, 1),
		messages:   []types.Message{},
		createdAt:  now,
		lastActive: now,
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) acquire(ctx context.Context) error {
	select {
	case s.turn <- struct{}{}:
		return nil
	case <-ctx.Done():
		return cancelled(ctx)
	}
}

func (s *Session) release() {
	<-s.turn
}

func cancelled(ctx context.Context) error {
	return &errs.UpstreamError{Message: "request cancelled", Cause: ctx.Err()}
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}

// UploadResume parses a résumé PDF and replaces the profile. The previous
// roadmap is always discarded. An unreadable document leaves the session
// Empty; a profile that degraded during extraction is kept with its Error set.
// Cancellation leaves the session unchanged.
func (s *Session) UploadResume(ctx context.Context, data []byte) (types.Profile, error) {
	if err := s.acquire(ctx); err != nil {
		return types.Profile{}, err
	}
	defer s.release()

	profile, err := s.deps.Parser.ParsePDF(ctx, data)
	if ctx.Err() != nil {
		return types.Profile{}, cancelled(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.lastRoadmap = ""
	if err != nil {
		s.profile = nil
		return profile, err
	}
	stored := profile.Clone()
	s.profile = &stored
	return profile, nil
}

// Ask answers a question, appending the question and the reply to the log.
// It works without a profile. On failure the reply starts with "Error:".
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		err := &errs.InputError{Message: "question is empty"}
		return types.RenderReply("", err), err
	}

	if err := s.acquire(ctx); err != nil {
		return types.RenderReply("", err), err
	}
	defer s.release()

	answer, err := s.deps.RAG.Answer(ctx, question, s.deps.K)
	if ctx.Err() != nil {
		err = cancelled(ctx)
		return types.RenderReply("", err), err
	}
	reply := types.RenderReply(answer, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.messages = append(s.messages,
		types.Message{Role: types.RoleUser, Content: question},
		types.Message{Role: types.RoleAssistant, Content: reply},
	)
	return reply, err
}

// MakeRoadmap generates a roadmap from the profile's skills to targetRole.
// It needs a profile with at least one skill. On failure the returned text
// starts with "Error:" and the previous roadmap is kept.
func (s *Session) MakeRoadmap(ctx context.Context, targetRole string) (string, error) {
	if err := s.acquire(ctx); err != nil {
		return types.RenderReply("", err), err
	}
	defer s.release()

	s.mu.RLock()
	var skills []string
	hasProfile := s.profile != nil
	if hasProfile {
		skills = append(skills, s.profile.Skills...)
	}
	s.mu.RUnlock()

	var err error
	switch {
	case !hasProfile:
		err = &errs.PreconditionError{Message: "upload a résumé before generating a roadmap"}
	case len(skills) == 0:
		err = &errs.PreconditionError{Message: "no skills were found in the résumé"}
	case strings.TrimSpace(targetRole) == "":
		err = &errs.InputError{Message: "target role is empty"}
	}
	if err != nil {
		return types.RenderReply("", err), err
	}

	markdown, err := s.deps.Roadmap.Generate(ctx, skills, targetRole)
	if ctx.Err() != nil {
		err = cancelled(ctx)
		return types.RenderReply("", err), err
	}
	if err != nil {
		return types.RenderReply("", err), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.lastRoadmap = markdown
	return markdown, nil
}

// ClearChat empties the message log. The profile and roadmap are kept.
func (s *Session) ClearChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.messages = []types.Message{}
}

// Profile returns a copy of the current profile.
func (s *Session) Profile() (types.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return types.Profile{}, false
	}
	return s.profile.Clone(), true
}

// Messages returns a copy of the message log.
func (s *Session) Messages() []types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Message{}, s.messages...)
}

// LastRoadmap returns the most recent roadmap, or "".
func (s *Session) LastRoadmap() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRoadmap
}

// State reports where the session is in its lifecycle.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	switch {
	case s.profile == nil:
		return StateEmpty
	case s.lastRoadmap != "":
		return StateProfiledWithRoadmap
	default:
		return StateProfiled
	}
}

// LastActive returns the time of the last completed operation.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Snapshot copies the whole session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ID:          s.id,
		State:       s.stateLocked(),
		Messages:    append([]types.Message{}, s.messages...),
		LastRoadmap: s.lastRoadmap,
		CreatedAt:   s.createdAt,
		LastActive:  s.lastActive,
	}
	if s.profile != nil {
		p := s.profile.Clone()
		snap.Profile = &p
	}
	return snap
}
