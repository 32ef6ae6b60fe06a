package news

import (
	"encoding/json"
	"net/http"
	"strings"

	"newsnotes/internal/forms"
)

type CensorRequest struct {
	Text string `json:"text"`
}

type CensorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Censor проверяет текст комментария теми же правилами, что и форма,
// не сохраняя его. POST /api/censor.
func (h *Handler) Censor(w http.ResponseWriter, r *http.Request) {
	var req CensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Неверное тело запроса", http.StatusBadRequest)
		return
	}

	resp := CensorResponse{Status: "approved"}
	status := http.StatusOK
	switch {
	case strings.TrimSpace(req.Text) == "":
		resp = CensorResponse{Status: "rejected", Error: "Комментарий не может быть пустым"}
		status = http.StatusBadRequest
	case forms.ContainsBadWord(req.Text):
		h.metrics.CommentsRejected.Inc()
		resp = CensorResponse{Status: "rejected", Error: forms.Warning}
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
