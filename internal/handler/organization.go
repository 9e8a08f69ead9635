package handler

import (
	"net/http"

	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/dangerclosesec/orgtodo/internal/service"
)

type OrganizationHandler struct {
	orgs *service.OrganizationService
}

func NewOrganizationHandler(orgs *service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs}
}

func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	filter, ok := queryFilter(w, r, repository.OrganizationFields)
	if !ok {
		return
	}

	orgs, err := h.orgs.List(r.Context(), p, filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, success(orgs))
}

// Create stores the organization along with the caller's membership.
func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var input service.CreateOrganizationInput
	if !decodeJSON(w, r, &input) {
		return
	}

	org, err := h.orgs.Create(r.Context(), p, input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, success(org))
}

func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	org, err := h.orgs.Get(r.Context(), p, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, success(org))
}

func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var input service.UpdateOrganizationInput
	if !decodeJSON(w, r, &input) {
		return
	}

	org, err := h.orgs.Update(r.Context(), p, id, input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, success(org))
}

// Delete runs the cascading delete. It answers 202 when a phase failed and
// the job was left for the reconciler.
func (h *OrganizationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	job, err := h.orgs.Delete(r.Context(), p, id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	status := http.StatusOK
	if !job.Finished() {
		status = http.StatusAccepted
	}
	respondWithJSON(w, status, success(job))
}

func (h *OrganizationHandler) Deletion(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	job, err := h.orgs.Deletion(r.Context(), p, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, success(job))
}
