package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fin2md/fin2md/internal/store"
)

// Person/post handlers are thin keyed CRUD around the store; they share the
// JSON envelope with the conversion API but none of its pipeline semantics.

type createPersonRequest struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

type createPostRequest struct {
	PersonID uuid.UUID `json:"personId"`
	Content  string    `json:"content"`
}

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	var req createPersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondBadRequest(w, "name is required")
		return
	}

	person, err := s.store.CreatePerson(r.Context(), req.Name, req.Age)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, person)
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "personID"))
	if err != nil {
		respondBadRequest(w, "invalid person id")
		return
	}

	person, err := s.store.GetPerson(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: "person not found", Message: "person not found", Code: "REQ404",
		})
		return
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (s *Server) handleListPersonPosts(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "personID"))
	if err != nil {
		respondBadRequest(w, "invalid person id")
		return
	}

	posts, err := s.store.ListPostsByPerson(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if posts == nil {
		posts = []store.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		respondBadRequest(w, "personId and content are required")
		return
	}

	post, err := s.store.CreatePost(r.Context(), req.PersonID, req.Content)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		respondBadRequest(w, "invalid post id")
		return
	}

	post, err := s.store.GetPost(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: "post not found", Message: "post not found", Code: "REQ404",
		})
		return
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}
