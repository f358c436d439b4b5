package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sparkvine/matchcore/internal/service/match"
)

// MatchHandler handles HTTP requests for matches.
type MatchHandler struct {
	Matches *match.Service
}

func NewMatchHandler(m *match.Service) *MatchHandler {
	return &MatchHandler{Matches: m}
}

// ListMatches processes GET /api/v1/users/{userId}/matches.
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		http.Error(w, "userId must be a valid id", http.StatusBadRequest)
		return
	}

	var token *string
	if t := r.URL.Query().Get("page_token"); t != "" {
		token = &t
	}
	limit := 20
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	views, nextToken, err := h.Matches.ListActive(r.Context(), userID, token, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]interface{}{"matches": views}
	if nextToken != nil {
		resp["next_page_token"] = *nextToken
	}
	writeJSON(w, http.StatusOK, resp)
}

type unmatchRequest struct {
	ActingUserID uint64 `json:"acting_user_id"`
}

// Unmatch processes POST /api/v1/matches/{matchId}/unmatch.
func (h *MatchHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]
	if matchID == "" {
		http.Error(w, "matchId is required", http.StatusBadRequest)
		return
	}

	var req unmatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ActingUserID == 0 {
		http.Error(w, "acting_user_id is required", http.StatusBadRequest)
		return
	}

	if err := h.Matches.Unmatch(r.Context(), matchID, req.ActingUserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unmatched"})
}
