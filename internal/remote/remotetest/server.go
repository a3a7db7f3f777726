// Package remotetest provides an in-memory goals backend for exercising the
// remote client and the sync repository against real HTTP. It implements the
// same hierarchy rules the production service enforces, including the closed
// set of link-rule codes.
package remotetest

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stridehq/stride/internal/remote"
	"github.com/stridehq/stride/internal/types"
)

// Server is an in-memory goals service.
type Server struct {
	mu     sync.Mutex
	goals  map[string]types.Goal
	apiKey string

	// failStatus, when non-zero, makes every request fail with that status
	// until cleared. Used to script server-side outages.
	failStatus int

	router chi.Router
}

// New creates an empty in-memory goals service. If apiKey is non-empty,
// requests must carry it as a bearer token.
func New(apiKey string) *Server {
	s := &Server{
		goals:  make(map[string]types.Goal),
		apiKey: apiKey,
	}

	r := chi.NewRouter()
	r.Route("/api/v1/goals", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Get("/candidates", s.handleCandidates)
		r.Get("/{id}", s.handleGet)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
		r.Post("/{id}/link", s.handleLink)
		r.Post("/{id}/unlink", s.handleUnlink)
		r.Get("/{id}/children", s.handleChildren)
		r.Get("/{id}/parent", s.handleParent)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler for mounting in httptest.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		fail := s.failStatus
		key := s.apiKey
		s.mu.Unlock()

		if fail != 0 {
			writeProblem(w, fail, "scripted failure", "")
			return
		}
		if key != "" && r.Header.Get("Authorization") != "Bearer "+key {
			writeProblem(w, http.StatusUnauthorized, "invalid or missing API key", "")
			return
		}
		s.router.ServeHTTP(w, r)
	})
}

// FailWith makes every subsequent request fail with the given HTTP status.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

// Recover clears a scripted failure.
func (s *Server) Recover() {
	s.FailWith(0)
}

// Seed inserts a goal directly, bypassing validation.
func (s *Server) Seed(goal types.Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[goal.ID] = goal
}

// Goal returns the stored copy of a goal and whether it exists.
func (s *Server) Goal(id string) (types.Goal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	return g, ok
}

// Count returns the number of stored goals.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.goals)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner_id")

	s.mu.Lock()
	var goals []types.Goal
	for _, g := range s.goals {
		if owner == "" || g.OwnerID == owner {
			goals = append(goals, g)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, types.GoalPage{Goals: goals, AsOf: time.Now().UTC()})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	g, ok := s.goals[chi.URLParam(r, "id")]
	s.mu.Unlock()

	if !ok {
		writeProblem(w, http.StatusNotFound, "goal not found", "")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var g types.Goal
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeProblem(w, http.StatusBadRequest, "malformed goal payload", "")
		return
	}
	if g.ID == "" {
		g.ID = ulid.Make().String()
	}

	// The server owns canonical timestamps.
	now := time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	g.LastSyncedAt = nil

	s.mu.Lock()
	s.goals[g.ID] = g
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var incoming types.Goal
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeProblem(w, http.StatusBadRequest, "malformed goal payload", "")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.goals[id]
	if !ok {
		writeProblem(w, http.StatusNotFound, "goal not found", "")
		return
	}

	// Kind is frozen while the goal participates in a link, as parent or child.
	if incoming.Kind != current.Kind && (current.ParentGoalID != nil || s.hasChildrenLocked(id)) {
		writeProblem(w, http.StatusConflict, "cannot change goal kind while linked",
			string(remote.CodeTypeChangeBlocked))
		return
	}

	incoming.ID = id
	incoming.CreatedAt = current.CreatedAt
	incoming.UpdatedAt = time.Now().UTC()
	incoming.LastSyncedAt = nil
	s.goals[id] = incoming

	writeJSON(w, http.StatusOK, incoming)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.goals[id]
	delete(s.goals, id)
	s.mu.Unlock()

	if !ok {
		writeProblem(w, http.StatusNotFound, "goal not found", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner_id")

	s.mu.Lock()
	var goals []types.Goal
	for _, g := range s.goals {
		if g.OwnerID == owner && g.Kind == types.KindLongTerm && g.Status == types.StatusActive {
			goals = append(goals, g)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, types.GoalPage{Goals: goals, AsOf: time.Now().UTC()})
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	childID := chi.URLParam(r, "id")

	var req types.LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "malformed link payload", "")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	child, ok := s.goals[childID]
	if !ok {
		writeLinkRule(w, remote.CodeGoalNotFound)
		return
	}
	parent, ok := s.goals[req.ParentGoalID]
	if !ok {
		writeLinkRule(w, remote.CodeParentNotFound)
		return
	}
	if childID == req.ParentGoalID {
		writeLinkRule(w, remote.CodeSelfLinkNotAllowed)
		return
	}
	if child.ParentGoalID != nil {
		writeLinkRule(w, remote.CodeGoalAlreadyLinked)
		return
	}
	if s.hasChildrenLocked(childID) {
		writeLinkRule(w, remote.CodeGoalHasChildren)
		return
	}
	if child.Kind != types.KindShortTerm {
		writeLinkRule(w, remote.CodeChildNotShortTerm)
		return
	}
	if parent.Kind != types.KindLongTerm {
		writeLinkRule(w, remote.CodeParentNotLongTerm)
		return
	}

	child.ParentGoalID = &req.ParentGoalID
	child.UpdatedAt = time.Now().UTC()
	s.goals[childID] = child

	writeJSON(w, http.StatusOK, child)
}

func (s *Server) handleUnlink(w http.ResponseWriter, r *http.Request) {
	childID := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	child, ok := s.goals[childID]
	if !ok {
		writeLinkRule(w, remote.CodeGoalNotFound)
		return
	}

	child.ParentGoalID = nil
	child.UpdatedAt = time.Now().UTC()
	s.goals[childID] = child

	writeJSON(w, http.StatusOK, child)
}

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	parentID := chi.URLParam(r, "id")

	s.mu.Lock()
	var goals []types.Goal
	for _, g := range s.goals {
		if g.ParentGoalID != nil && *g.ParentGoalID == parentID {
			goals = append(goals, g)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, types.GoalPage{Goals: goals, AsOf: time.Now().UTC()})
}

func (s *Server) handleParent(w http.ResponseWriter, r *http.Request) {
	childID := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	child, ok := s.goals[childID]
	if !ok || child.ParentGoalID == nil {
		writeProblem(w, http.StatusNotFound, "no parent linked", "")
		return
	}
	parent, ok := s.goals[*child.ParentGoalID]
	if !ok {
		writeProblem(w, http.StatusNotFound, "parent goal not found", "")
		return
	}
	writeJSON(w, http.StatusOK, parent)
}

// hasChildrenLocked reports whether any goal links to id. Caller holds mu.
func (s *Server) hasChildrenLocked(id string) bool {
	for _, g := range s.goals {
		if g.ParentGoalID != nil && *g.ParentGoalID == id {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem writes an RFC 7807 Problem Details response. The optional
// code carries the enumerated rule identifier the client classifies on.
func writeProblem(w http.ResponseWriter, status int, detail, code string) {
	p := struct {
		Type   string `json:"type"`
		Title  string `json:"title"`
		Status int    `json:"status"`
		Detail string `json:"detail"`
		Code   string `json:"code,omitempty"`
	}{
		Type:   "https://stride.dev/errors/" + strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "-")),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Code:   code,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(p)
}

// writeLinkRule writes a 422 problem carrying a hierarchy rule code.
func writeLinkRule(w http.ResponseWriter, code remote.LinkRuleCode) {
	writeProblem(w, http.StatusUnprocessableEntity, "hierarchy rule violated", string(code))
}
