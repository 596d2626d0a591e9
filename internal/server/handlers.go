package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/intelboard/api/internal/assistant"
	"github.com/intelboard/api/internal/auth"
	"github.com/intelboard/api/internal/domain"
	"github.com/intelboard/api/internal/ingestion"
	"github.com/intelboard/api/internal/middleware"

	"github.com/gorilla/mux"
)

// session resolves the per-request staging session, or fails the request.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*ingestion.Session, bool) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, "session not established", http.StatusBadRequest)
		return nil, false
	}
	return s.manager.Session(sessionID), true
}

func datasetName(r *http.Request) string {
	return strings.TrimSpace(mux.Vars(r)["dataset"])
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireRole(r.Context(), auth.RoleAnalyst, auth.RoleAdmin); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	dataset := datasetName(r)
	if _, ok := domain.SchemaByName(dataset); !ok {
		http.Error(w, fmt.Sprintf("unknown dataset: %s", dataset), http.StatusNotFound)
		return
	}

	// MaxBytesReader enforces the limit; ParseMultipartForm alone only
	// bounds what stays in memory before spooling to disk.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	session, ok := s.session(w, r)
	if !ok {
		return
	}

	outcome := session.ProcessUpload(r.Context(), dataset, header.Filename, payload)
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleManualRow(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireRole(r.Context(), auth.RoleAnalyst, auth.RoleAdmin); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	dataset := datasetName(r)
	var input map[string]any
	if err := decodeJSONBody(r, &input); err != nil {
		http.Error(w, fmt.Sprintf("invalid row payload: %v", err), http.StatusBadRequest)
		return
	}

	session, ok := s.session(w, r)
	if !ok {
		return
	}

	added := session.AddManualRow(dataset, input)
	status := http.StatusOK
	if !added {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]bool{"added": added})
}

func (s *Server) handleStaged(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	dataset := datasetName(r)
	store, ok := session.Store(dataset)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown dataset: %s", dataset), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]domain.Row{
		"matching":   store.Matching(),
		"unmatching": store.Unmatching(),
		"manual":     store.Manual(),
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireRole(r.Context(), auth.RoleAnalyst, auth.RoleAdmin); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	session, ok := s.session(w, r)
	if !ok {
		return
	}

	session.Clear(datasetName(r))
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireRole(r.Context(), auth.RoleAnalyst, auth.RoleAdmin); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}

	session, ok := s.session(w, r)
	if !ok {
		return
	}

	deleted := session.DeleteAt(datasetName(r), ingestion.Bucket(vars["bucket"]), index)
	status := http.StatusOK
	if !deleted {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]bool{"deleted": deleted})
}

func (s *Server) handleCombined(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	dataset := datasetName(r)
	store, ok := session.Store(dataset)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown dataset: %s", dataset), http.StatusNotFound)
		return
	}

	var persisted []domain.Row
	if rowStore, ok := s.stores[dataset]; ok && rowStore != nil {
		rows, err := rowStore.SelectAll(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to load persisted rows: %v", err), http.StatusInternalServerError)
			return
		}
		persisted = rows
	}

	combined := store.CombineWithOriginal(persisted)
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":  combined,
		"total": len(combined),
	})
}

// handleStats reports how many rows each destination holds for a dataset:
// the persisted table plus the session's three staging buckets.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	dataset := datasetName(r)
	store, ok := session.Store(dataset)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown dataset: %s", dataset), http.StatusNotFound)
		return
	}

	var persisted int64
	if rowStore, ok := s.stores[dataset]; ok && rowStore != nil {
		count, err := rowStore.Count(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to count persisted rows: %v", err), http.StatusInternalServerError)
			return
		}
		persisted = count
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"persisted":  persisted,
		"matching":   len(store.Matching()),
		"unmatching": len(store.Unmatching()),
		"manual":     len(store.Manual()),
	})
}

// handleUploadLogs lists the recorded row issues for one uploaded file,
// beyond the few surfaced in the outcome message.
func (s *Server) handleUploadLogs(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireRole(r.Context(), auth.RoleAnalyst, auth.RoleAdmin); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	dataset := datasetName(r)
	if _, ok := domain.SchemaByName(dataset); !ok {
		http.Error(w, fmt.Sprintf("unknown dataset: %s", dataset), http.StatusNotFound)
		return
	}

	fileName := strings.TrimSpace(r.URL.Query().Get("file"))
	if fileName == "" {
		http.Error(w, "file query parameter is required", http.StatusBadRequest)
		return
	}

	if s.logs == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []domain.UploadLogEntry{}})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := s.logs.List(r.Context(), dataset, fileName, limit, offset)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list upload logs: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type chatRequest struct {
	Dataset string `json:"dataset"`
	Text    string `json:"text"`
}

// handleChat forwards a question to the chat collaborator with the
// combined dataset as context. Fire-and-forget: the dashboard polls
// elsewhere for answers, and upload processing never depends on this.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSONBody(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid chat payload: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var rowContext string
	if store, ok := session.Store(req.Dataset); ok {
		var persisted []domain.Row
		if rowStore, ok := s.stores[req.Dataset]; ok && rowStore != nil {
			if rows, err := rowStore.SelectAll(r.Context()); err == nil {
				persisted = rows
			}
		}
		rowContext = assistant.BuildRowContext(req.Dataset, store.CombineWithOriginal(persisted), 20)
	}

	assistant.AskAsync(s.asker, req.Text, rowContext)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func decodeJSONBody(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}
