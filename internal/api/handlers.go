package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aeroconcept/sizer/internal/config"
	"github.com/aeroconcept/sizer/internal/sizing"
	"github.com/aeroconcept/sizer/internal/storage/sqlite"
	"github.com/aeroconcept/sizer/internal/tradestudy"
	"github.com/aeroconcept/sizer/internal/websocket"
	"github.com/aeroconcept/sizer/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	sizer         *sizing.Sizer
	runner        *tradestudy.Runner
	designStorage *sqlite.DesignStorage
	config        *config.Config
	logger        *logger.Logger
	wsServer      *websocket.Server
}

// NewHandler creates a new API handler
func NewHandler(sizer *sizing.Sizer, runner *tradestudy.Runner, designStorage *sqlite.DesignStorage, config *config.Config, logger *logger.Logger, wsServer *websocket.Server) *Handler {
	return &Handler{
		sizer:         sizer,
		runner:        runner,
		designStorage: designStorage,
		config:        config,
		logger:        logger.Named("api-handler"),
		wsServer:      wsServer,
	}
}

// CreateDesign runs the full sizing loop for a single design case and
// persists the converged result. Iteration progress is broadcast over the
// WebSocket hub while the loop runs.
func (h *Handler) CreateDesign(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var dc config.DesignCase
	if err := json.NewDecoder(r.Body).Decode(&dc); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if dc.Name == "" {
		http.Error(w, "Design case name is required", http.StatusBadRequest)
		return
	}
	if len(dc.Mission) == 0 {
		http.Error(w, "Design case requires at least one mission segment", http.StatusBadRequest)
		return
	}

	ac, m, err := tradestudy.BuildCase(&dc)
	if err != nil {
		h.logger.Warn("Rejected design case", logger.String("name", dc.Name), logger.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.sizer.Design(r.Context(), ac, m, func(p sizing.Progress) {
		h.wsServer.Broadcast(&websocket.Message{
			Type: websocket.MessageTypeSizingProgress,
			Data: map[string]any{"name": dc.Name, "progress": p},
		})
	})
	if err != nil {
		h.wsServer.Broadcast(&websocket.Message{
			Type: websocket.MessageTypeSizingFailed,
			Data: map[string]any{"name": dc.Name, "error": err.Error()},
		})
		if errors.Is(err, sizing.ErrInfeasible) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("Sizing failed", logger.String("name", dc.Name), logger.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	id, err := h.designStorage.Save(&dc, result)
	if err != nil {
		h.logger.Error("Failed to save design", logger.String("name", dc.Name), logger.Error(err))
		http.Error(w, "Failed to save design", http.StatusInternalServerError)
		return
	}

	h.wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeSizingComplete,
		Data: map[string]any{"id": id, "name": dc.Name, "result": result},
	})

	h.logger.Info("Design sized",
		logger.Int64("id", id),
		logger.String("name", dc.Name),
		logger.Float("takeoff_weight", result.TakeoffWeight),
		logger.Bool("converged", result.Converged),
		logger.Duration("duration", time.Since(start)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"id":     id,
		"name":   dc.Name,
		"result": result,
	}); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

// ListDesigns returns summaries of all stored designs, newest first.
func (h *Handler) ListDesigns(w http.ResponseWriter, r *http.Request) {
	designs, err := h.designStorage.List()
	if err != nil {
		h.logger.Error("Failed to list designs", logger.Error(err))
		http.Error(w, "Failed to list designs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"count":   len(designs),
		"designs": designs,
	}); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

// GetDesign returns a single stored design with its full input case and result.
func (h *Handler) GetDesign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.designID(w, r)
	if !ok {
		return
	}

	record, err := h.designStorage.Get(id)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			http.Error(w, "Design not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to get design", logger.Int64("id", id), logger.Error(err))
		http.Error(w, "Failed to get design", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(record); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

// GetDesignConstraints returns the constraint-diagram curves for a stored
// design, downsampled to the configured point budget.
func (h *Handler) GetDesignConstraints(w http.ResponseWriter, r *http.Request) {
	id, ok := h.designID(w, r)
	if !ok {
		return
	}

	curves, err := h.designStorage.Constraints(id)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			http.Error(w, "Design not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to get constraint curves", logger.Int64("id", id), logger.Error(err))
		http.Error(w, "Failed to get constraint curves", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(curves); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

// TradeStudyRequest is the request body for a trade-study run.
type TradeStudyRequest struct {
	Name  string              `json:"name"`
	Cases []config.DesignCase `json:"cases"`
}

// RunTradeStudy sizes a batch of design cases concurrently and returns all
// results in request order. Individual case failures are reported inline
// rather than failing the study.
func (h *Handler) RunTradeStudy(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req TradeStudyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if len(req.Cases) == 0 {
		http.Error(w, "Trade study requires at least one design case", http.StatusBadRequest)
		return
	}
	if max := h.config.TradeStudy.MaxCases; max > 0 && len(req.Cases) > max {
		http.Error(w, fmt.Sprintf("Too many design cases: %d (limit %d)", len(req.Cases), max), http.StatusBadRequest)
		return
	}

	results, err := h.runner.Run(r.Context(), req.Cases, func(cr tradestudy.CaseResult) {
		h.wsServer.Broadcast(&websocket.Message{
			Type: websocket.MessageTypeCaseComplete,
			Data: cr,
		})
	})
	if err != nil {
		h.logger.Error("Trade study aborted", logger.String("name", req.Name), logger.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	failed := 0
	for _, cr := range results {
		if cr.Err != "" {
			failed++
		}
	}

	h.wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeStudyComplete,
		Data: map[string]any{"name": req.Name, "cases": len(results), "failed": failed},
	})

	h.logger.Info("Trade study complete",
		logger.String("name", req.Name),
		logger.Int("cases", len(results)),
		logger.Int("failed", failed),
		logger.Duration("duration", time.Since(start)))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"name":    req.Name,
		"cases":   len(results),
		"failed":  failed,
		"results": results,
	}); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

// HandleWebSocket upgrades the connection and hands it to the hub.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

func (h *Handler) designID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		http.Error(w, "Missing design ID", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid design ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
