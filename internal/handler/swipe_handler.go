package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sparkvine/matchcore/internal/db"
	"github.com/sparkvine/matchcore/internal/service/swipe"
)

// SwipeHandler handles HTTP requests for swipe actions.
type SwipeHandler struct {
	Swipes *swipe.Service
}

func NewSwipeHandler(swipes *swipe.Service) *SwipeHandler {
	return &SwipeHandler{Swipes: swipes}
}

type putSwipeRequest struct {
	ActorUserID  uint64 `json:"actor_user_id"`
	TargetUserID uint64 `json:"target_user_id"`
	Action       string `json:"action"`
}

// PutSwipe processes POST /api/v1/swipes.
func (h *SwipeHandler) PutSwipe(w http.ResponseWriter, r *http.Request) {
	var req putSwipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ActorUserID == 0 || req.TargetUserID == 0 {
		http.Error(w, "actor_user_id and target_user_id are required", http.StatusBadRequest)
		return
	}

	result, err := h.Swipes.ProcessSwipe(r.Context(), req.ActorUserID, req.TargetUserID, db.SwipeAction(req.Action))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type undoSwipeRequest struct {
	ActorUserID uint64 `json:"actor_user_id"`
}

// UndoSwipe processes POST /api/v1/swipes/undo.
func (h *SwipeHandler) UndoSwipe(w http.ResponseWriter, r *http.Request) {
	var req undoSwipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ActorUserID == 0 {
		http.Error(w, "actor_user_id is required", http.StatusBadRequest)
		return
	}

	undone, err := h.Swipes.UndoSwipe(r.Context(), req.ActorUserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"undone": undone})
}

// ListLikers processes GET /api/v1/users/{userId}/likers.
func (h *SwipeHandler) ListLikers(w http.ResponseWriter, r *http.Request) {
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

	swipes, nextToken, err := h.Swipes.ListLikers(r.Context(), userID, token, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	type liker struct {
		UserID     uint64 `json:"user_id"`
		Action     string `json:"action"`
		UnixMillis int64  `json:"unix_millis"`
	}
	likers := make([]liker, 0, len(swipes))
	for _, s := range swipes {
		likers = append(likers, liker{
			UserID:     s.ActorID,
			Action:     string(s.Action),
			UnixMillis: s.UpdatedAt.UnixMilli(),
		})
	}

	resp := map[string]interface{}{"likers": likers}
	if nextToken != nil {
		resp["next_page_token"] = *nextToken
	}
	writeJSON(w, http.StatusOK, resp)
}

// CountLikers processes GET /api/v1/users/{userId}/likers/count.
func (h *SwipeHandler) CountLikers(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		http.Error(w, "userId must be a valid id", http.StatusBadRequest)
		return
	}

	count, err := h.Swipes.CountLikers(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}
