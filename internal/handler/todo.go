package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/dangerclosesec/orgtodo/internal/service"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type TodoHandler struct {
	todos *service.TodoService
	feed  *service.TodoFeed
}

func NewTodoHandler(todos *service.TodoService, feed *service.TodoFeed) *TodoHandler {
	return &TodoHandler{todos: todos, feed: feed}
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	filter, ok := queryFilter(w, r, repository.TodoFields)
	if !ok {
		return
	}

	todos, err := h.todos.List(r.Context(), p, filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, success(todos))
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var input service.CreateTodoInput
	if !decodeJSON(w, r, &input) {
		return
	}

	todo, err := h.todos.Create(r.Context(), p, input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, success(todo))
}

func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	todo, err := h.todos.Get(r.Context(), p, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, success(todo))
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var input service.UpdateTodoInput
	if !decodeJSON(w, r, &input) {
		return
	}

	todo, err := h.todos.Update(r.Context(), p, id, input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, success(todo))
}

func (h *TodoHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	todo, err := h.todos.Toggle(r.Context(), p, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, success(todo))
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.todos.Delete(r.Context(), p, id); err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

// Observe streams todo snapshots as Server-Sent Events. Every "snapshot"
// event carries the complete list matching the filter.
func (h *TodoHandler) Observe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	filter, ok := queryFilter(w, r, repository.TodoFields)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	err := h.feed.Observe(r.Context(), p, filter, func(todos []*model.Todo) error {
		if todos == nil {
			todos = []*model.Todo{}
		}
		data, err := json.Marshal(todos)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		slog.WarnContext(r.Context(), "todo stream ended", "error", err, "requestID", chimw.GetReqID(r.Context()))
		fmt.Fprintf(w, "event: error\ndata: %q\n\n", err.Error())
		flusher.Flush()
	}
}
