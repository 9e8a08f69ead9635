package handler

import "net/http"

// Me returns the principal described by the bearer token.
func Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, success(p))
}
