package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskwire/taskwire/internal/hub"
	"github.com/taskwire/taskwire/internal/model"
	"github.com/taskwire/taskwire/internal/store"
)

// listEvents mirrors listTasks, ordered newest-first by start date.
func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	user := UserID(r)

	page, paged := pageFromQuery(r)
	events, total, err := s.store.ListEvents(r.Context(), user, page)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if events == nil {
		events = []*model.Event{}
	}

	if !paged {
		writeJSON(w, http.StatusOK, events)
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse{
		Data:        events,
		CurrentPage: page.Number,
		TotalPages:  page.TotalPages(total),
	})
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	user := UserID(r)

	var in model.CreateEventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	start, err := model.ParseDate(in.StartDate)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid start date")
		return
	}
	end, err := model.ParseDate(in.EndDate)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid end date")
		return
	}

	event, err := s.store.CreateEvent(r.Context(), user, in.Title, in.Description, start, end, in.Recurrence)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.hub.Emit(hub.EventCreated, event)
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	user := UserID(r)
	id := mux.Vars(r)["id"]

	event, err := s.store.GetEvent(r.Context(), user, id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	user := UserID(r)
	id := mux.Vars(r)["id"]

	var in model.UpdateEventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	patch := store.EventPatch{
		Title:       in.Title,
		Description: in.Description,
		Recurrence:  in.Recurrence,
	}
	if in.StartDate != nil {
		start, err := model.ParseDate(*in.StartDate)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid start date")
			return
		}
		patch.StartDate = &start
	}
	if in.EndDate != nil {
		end, err := model.ParseDate(*in.EndDate)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid end date")
			return
		}
		patch.EndDate = &end
	}

	event, err := s.store.UpdateEvent(r.Context(), user, id, patch)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.hub.Emit(hub.EventUpdated, event)
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	user := UserID(r)
	id := mux.Vars(r)["id"]

	err := s.store.DeleteEvent(r.Context(), user, id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.hub.Emit(hub.EventDeleted, map[string]string{"id": id})
	writeJSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}
