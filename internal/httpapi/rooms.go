package httpapi

import (
	"net/http"

	"github.com/amamusic/accademia/internal/db"
)

type roomRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := db.ListRooms(r.Context(), s.db)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if !s.decode(w, r, &req) {
		return
	}
	room, err := db.CreateRoom(r.Context(), s.db, req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, room)
}

func (s *Server) handleRenameRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req roomRequest
	if !s.decode(w, r, &req) {
		return
	}
	room, err := db.RenameRoom(r.Context(), s.db, id, req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, room)
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := db.DeleteRoom(r.Context(), s.db, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
