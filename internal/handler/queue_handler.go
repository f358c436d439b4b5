package handler

import (
	"net/http"

	"github.com/sparkvine/matchcore/internal/service/queue"
)

// QueueHandler handles HTTP requests for the candidate queue.
type QueueHandler struct {
	Queue *queue.Service
}

func NewQueueHandler(q *queue.Service) *QueueHandler {
	return &QueueHandler{Queue: q}
}

// GetQueue processes GET /api/v1/users/{userId}/queue. Pass refresh=1
// to force a rebuild past the freshness debounce.
func (h *QueueHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		http.Error(w, "userId must be a valid id", http.StatusBadRequest)
		return
	}

	force := r.URL.Query().Get("refresh") == "1"

	entries, err := h.Queue.BuildQueue(r.Context(), userID, force)
	if err != nil {
		writeError(w, err)
		return
	}

	type candidate struct {
		CandidateID uint64  `json:"candidate_id"`
		Score       float64 `json:"score"`
		Priority    int     `json:"priority"`
		DistanceKm  float64 `json:"distance_km"`
	}
	candidates := make([]candidate, 0, len(entries))
	for _, e := range entries {
		candidates = append(candidates, candidate{
			CandidateID: e.CandidateID,
			Score:       e.Score,
			Priority:    e.Priority,
			DistanceKm:  e.DistanceKm,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"queue": candidates})
}
