package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/taskwire/taskwire/internal/hub"
	"github.com/taskwire/taskwire/internal/model"
	"github.com/taskwire/taskwire/internal/store"
)

// pagedResponse is the list shape when page or limit is requested.
type pagedResponse struct {
	Data        any `json:"data"`
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}

// pageFromQuery reads page/limit query parameters. The second return is
// false when neither parameter is present and the full set should be
// returned.
func pageFromQuery(r *http.Request) (store.Page, bool) {
	q := r.URL.Query()
	if q.Get("page") == "" && q.Get("limit") == "" {
		return store.Page{}, false
	}

	page := store.Page{Number: 1, Size: 10}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n >= 1 {
		page.Number = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n >= 1 {
		page.Size = n
	}
	return page, true
}

// listTasks returns the user's tasks newest-first: the full set for the
// dashboard, or one page plus pagination metadata when page/limit is
// supplied.
func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	user := UserID(r)

	page, paged := pageFromQuery(r)
	tasks, total, err := s.store.ListTasks(r.Context(), user, page)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}

	if !paged {
		writeJSON(w, http.StatusOK, tasks)
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse{
		Data:        tasks,
		CurrentPage: page.Number,
		TotalPages:  page.TotalPages(total),
	})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	user := UserID(r)

	var in model.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	dueDate, err := model.ParseDate(in.DueDate)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid due date")
		return
	}

	task, err := s.store.CreateTask(r.Context(), user, in.Title, in.Description, dueDate)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	// Exactly one publish per successful create; the record carries the
	// owner as a plain string
	s.hub.Emit(hub.TaskCreated, task)
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	user := UserID(r)
	id := mux.Vars(r)["id"]

	task, err := s.store.GetTask(r.Context(), user, id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	user := UserID(r)
	id := mux.Vars(r)["id"]

	var in model.UpdateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	patch := store.TaskPatch{
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
	}
	if in.DueDate != nil {
		dueDate, err := model.ParseDate(*in.DueDate)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid due date")
			return
		}
		patch.DueDate = &dueDate
	}

	task, err := s.store.UpdateTask(r.Context(), user, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		// Foreign owner and unknown id are indistinguishable
		s.writeError(w, r, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.hub.Emit(hub.TaskUpdated, task)
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	user := UserID(r)
	id := mux.Vars(r)["id"]

	err := s.store.DeleteTask(r.Context(), user, id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	// Deletions broadcast only the identifier
	s.hub.Emit(hub.TaskDeleted, map[string]string{"id": id})
	writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted"})
}
