package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/emotune/emotune/internal/notify"
	"github.com/emotune/emotune/internal/suno"
	"github.com/emotune/emotune/pkg/log"
)

type generateRequest struct {
	Emotion      string `json:"emotion"`
	Instrumental bool   `json:"instrumental"`
}

type generateResponse struct {
	ClipIDs []string `json:"clipIds"`
	Prompt  string   `json:"prompt"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Emotion) == "" {
		writeError(w, http.StatusBadRequest, "emotion is required")
		return
	}

	jobID, prompt, err := s.svc.GenerateFromEmotion(r.Context(), req.Emotion, req.Instrumental)
	if err != nil {
		log.Error("Generate from emotion failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		ClipIDs: []string{jobID},
		Prompt:  prompt,
	})
}

// handleCallback ingests the generation API's completion webhook. The payload
// shape is not ours; anything malformed is rejected with 400 and mutates
// nothing. A valid callback always gets a 200, listeners attached or not.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	jobID, clip, err := suno.ParseWebhook(body)
	if err != nil {
		log.Warn("Rejected malformed callback: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Info("Callback received for job %s (clip %s)", jobID, clip.ID)
	s.broker.Resolve(jobID, clip.Record(jobID))
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
	})
}

type statusResponse struct {
	Found   []notify.Record `json:"found"`
	Pending []string        `json:"pending"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ids := splitIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}

	found, pending := s.svc.Reconcile(r.Context(), ids)
	writeJSON(w, http.StatusOK, statusResponse{
		Found:   found,
		Pending: pending,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "history is not configured")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	tracks, err := s.history.ListTracks(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// splitIDs parses a comma-separated id list, dropping blanks and duplicates
// while keeping first-seen order.
func splitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	seen := make(map[string]bool, len(parts))
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		id := strings.TrimSpace(part)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
