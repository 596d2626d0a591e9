package server

import (
	"encoding/json"
	"net/http"

	"github.com/intelboard/api/internal/assistant"
	"github.com/intelboard/api/internal/ingestion"
	"github.com/intelboard/api/internal/repository"

	"github.com/gorilla/mux"
)

// Server exposes the upload reconciler and its staging state over HTTP.
// These handlers are the "pages": they gate access by role and render
// reconciler outcomes; the reconciler itself never checks authorization.
type Server struct {
	manager   *ingestion.Manager
	stores    map[string]repository.RowStore
	logs      repository.UploadLogRepository
	asker     assistant.Asker
	maxUpload int64
}

// New builds the HTTP surface over a session manager, the per-dataset
// row stores used for the combined projection, and the upload log used
// for operator review.
func New(manager *ingestion.Manager, stores map[string]repository.RowStore, logs repository.UploadLogRepository, asker assistant.Asker, maxUpload int64) *Server {
	if asker == nil {
		asker = assistant.Disabled()
	}
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	return &Server{
		manager:   manager,
		stores:    stores,
		logs:      logs,
		asker:     asker,
		maxUpload: maxUpload,
	}
}

// Router wires all dashboard endpoints.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/datasets/{dataset}/upload", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/datasets/{dataset}/rows", s.handleManualRow).Methods(http.MethodPost)
	r.HandleFunc("/datasets/{dataset}/staged", s.handleStaged).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{dataset}/staged/clear", s.handleClear).Methods(http.MethodPost)
	r.HandleFunc("/datasets/{dataset}/staged/{bucket}/{index:[0-9]+}", s.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/datasets/{dataset}/combined", s.handleCombined).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{dataset}/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/datasets/{dataset}/upload-logs", s.handleUploadLogs).Methods(http.MethodGet)

	r.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
