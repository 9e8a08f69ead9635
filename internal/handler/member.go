package handler

import (
	"net/http"

	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/dangerclosesec/orgtodo/internal/service"
)

type MemberHandler struct {
	members *service.MemberService
}

func NewMemberHandler(members *service.MemberService) *MemberHandler {
	return &MemberHandler{members: members}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	filter, ok := queryFilter(w, r, repository.MemberFields)
	if !ok {
		return
	}

	members, err := h.members.List(r.Context(), p, filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, success(members))
}

// Mine lists the memberships addressed to the caller's email.
func (h *MemberHandler) Mine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	members, err := h.members.Mine(r.Context(), p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, success(members))
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var input service.AddMemberInput
	if !decodeJSON(w, r, &input) {
		return
	}

	member, err := h.members.Add(r.Context(), p, input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, success(member))
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	member, err := h.members.Get(r.Context(), p, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, success(member))
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.members.Remove(r.Context(), p, id); err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

func (h *MemberHandler) Accept(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	member, err := h.members.Accept(r.Context(), p, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, success(member))
}
