package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes attaches all API routes to the router.
func RegisterRoutes(r *mux.Router, swipes *SwipeHandler, queues *QueueHandler, matches *MatchHandler) {
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/swipes", swipes.PutSwipe).Methods("POST")
	api.HandleFunc("/swipes/undo", swipes.UndoSwipe).Methods("POST")

	api.HandleFunc("/users/{userId}/queue", queues.GetQueue).Methods("GET")
	api.HandleFunc("/users/{userId}/likers", swipes.ListLikers).Methods("GET")
	api.HandleFunc("/users/{userId}/likers/count", swipes.CountLikers).Methods("GET")
	api.HandleFunc("/users/{userId}/matches", matches.ListMatches).Methods("GET")

	api.HandleFunc("/matches/{matchId}/unmatch", matches.Unmatch).Methods("POST")
}
