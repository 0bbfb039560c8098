package session

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type inputRequest struct {
	Input string `json:"input"`
}

type Response struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Text  string `json:"text,omitempty"`
	Board string `json:"board,omitempty"`
}

// HTTP routes of the text sessions:
//
//	POST   /sessions       create a session, returns the welcome text
//	POST   /sessions/{id}  send {"input": "..."}, returns the reply
//	GET    /sessions/{id}  current state and compact board
//	DELETE /sessions/{id}  end the session
func Handler(store *Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/sessions", func(w http.ResponseWriter, r *http.Request) {
		id, text, err := store.Create()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, Response{ID: id, State: StateChooseAlgo.String(), Text: text})
	})

	r.Post("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var payload inputRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}

		text, state, err := store.Respond(id, payload.Input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{ID: id, State: state.String(), Text: text})
	})

	r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		state, compact, err := store.Snapshot(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{ID: id, State: state.String(), Board: compact})
	})

	r.Delete("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ErrNotFound) {
		status = http.StatusNotFound
	} else {
		log.Error().Err(err).Msg("session: request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
