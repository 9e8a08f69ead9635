package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/middleware"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ErrorResponse struct { // TypeGen: ErrorResponse
	BaseResponse
	Error   string    `json:"error"`
	Details *[]string `json:"details,omitempty"`
	Code    *string   `json:"error_code,omitempty"`
	Link    *string   `json:"error_link,omitempty"`
}

type BaseResponse struct { // TypeGen: DefaultResponse
	Ok bool `json:"ok"`
}

// DataResponse wraps a successful payload.
type DataResponse[T any] struct {
	BaseResponse
	Data T `json:"data"`
}

func success[T any](data T) DataResponse[T] {
	return DataResponse[T]{BaseResponse: BaseResponse{Ok: true}, Data: data}
}

// respondWithError sends an error response with a message
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	// Sets content type header
	w.Header().Set("Content-Type", "application/json")

	// Sets the HTTP status code
	w.WriteHeader(code)

	// Encodes the response
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// If encoding fails, logs the error and sends a plain text response
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrOrganizationNotFound),
		errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrTodoNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrCannotRemoveSelf):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMemberAlreadyExists),
		errors.Is(err, domain.ErrMembershipNotPending),
		errors.Is(err, domain.ErrDeletionInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleError maps service errors to responses. Unexpected errors are
// logged and reported without detail.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "error", err, "requestID", chimw.GetReqID(r.Context()))
		respondWithError(w, status, "Internal server error")
		return
	}

	slog.DebugContext(r.Context(), "request rejected", "error", err, "status", status, "requestID", chimw.GetReqID(r.Context()))
	code := domain.Code(err)
	respondWithJSON(w, status, ErrorResponse{Error: err.Error(), Code: &code})
}

// principal returns the authenticated caller, answering 401 when missing.
func principal(w http.ResponseWriter, r *http.Request) (*model.Principal, bool) {
	p, found := middleware.PrincipalFromContext(r.Context())
	if !found {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}
	return p, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// queryFilter parses the JSON filter in the "filter" query parameter.
func queryFilter(w http.ResponseWriter, r *http.Request, fields repository.Fields) (*repository.Filter, bool) {
	filter, err := repository.ParseFilter([]byte(r.URL.Query().Get("filter")), fields)
	if err != nil {
		handleError(w, r, err)
		return nil, false
	}
	return filter, true
}
