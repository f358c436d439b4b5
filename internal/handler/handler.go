// Package handler is the HTTP JSON surface over the matching services.
// Authentication and authorization happen upstream; handlers only parse,
// delegate and serialize.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	svcErr "github.com/sparkvine/matchcore/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, svcErr.HTTPStatus(err), map[string]string{"error": err.Error()})
}

// pathID parses a numeric user ID out of a mux path variable.
func pathID(r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	return id, err == nil && id > 0
}
