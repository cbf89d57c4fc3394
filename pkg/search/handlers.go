package search

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// HistoryLister reads back persisted search history.
type HistoryLister interface {
	List(ctx context.Context) ([]string, error)
}

// Handlers provides the HTTP presentation facade over the
// coordinator. Rendering, debounce and focus handling belong to the
// caller; this surface only exposes the pipeline.
type Handlers struct {
	coordinator *Coordinator
	history     HistoryLister
	logger      logrus.FieldLogger
}

// NewHandlers creates the search HTTP handlers. history may be nil.
func NewHandlers(coordinator *Coordinator, history HistoryLister, logger logrus.FieldLogger) *Handlers {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handlers{
		coordinator: coordinator,
		history:     history,
		logger:      logger,
	}
}

// RegisterRoutes registers search routes.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/search", h.search).Methods("GET")
	router.HandleFunc("/search/history", h.searchHistory).Methods("GET")
}

// search handles GET /search?q=...&category=...&modules=a,b&self=...
func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	req := Request{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
		SelfID:   r.URL.Query().Get("self"),
	}
	if modules := r.URL.Query().Get("modules"); modules != "" {
		for _, name := range strings.Split(modules, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.Enabled = append(req.Enabled, Module(name))
			}
		}
	}

	// HTTP is a single observation point; no partial callback.
	resp, err := h.coordinator.Search(r.Context(), req, nil)
	if err != nil {
		h.logger.WithError(err).Error("search request failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resp)
}

// searchHistory handles GET /search/history
func (h *Handlers) searchHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, []string{})
		return
	}

	queries, err := h.history.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to load search history")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, queries)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
