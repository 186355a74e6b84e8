package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-scheduler/internal/config"
	"github.com/jakechorley/duty-scheduler/pkg/core/services"
	"github.com/jakechorley/duty-scheduler/pkg/db"
	"github.com/jakechorley/duty-scheduler/pkg/metrics"
)

var validate = validator.New()

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   db.Database
	Cfg     *config.Config
	Metrics metrics.Recorder
	// Publisher is optional. Without it /api/schedule/publish only returns the grid.
	Publisher services.SchedulePublisher
	Logger    *zap.Logger
}

// NewHandler creates a handler. A nil recorder or logger becomes a no-op.
func NewHandler(store db.Database, cfg *config.Config, rec metrics.Recorder, logger *zap.Logger) *Handler {
	if rec == nil {
		rec = metrics.NewNop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Store: store, Cfg: cfg, Metrics: rec, Logger: logger}
}

// GenerateSchedule handles POST /api/schedule/generate
func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := services.GenerateSchedule(r.Context(), h.Store, h.Cfg, h.Metrics, h.Logger, services.GenerateRequest{
		StartMonth: req.StartMonth,
		EndMonth:   req.EndMonth,
		Seed:       req.Seed,
		DryRun:     req.DryRun,
	})
	if err != nil {
		h.fail(w, "failed to generate schedule", err)
		return
	}

	status := http.StatusCreated
	if !result.Saved {
		status = http.StatusOK
	}
	writeJSON(w, status, toGenerateResponse(result))
}

// PublishSchedule handles POST /api/schedule/publish
func (h *Handler) PublishSchedule(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if !decode(w, r, &req) {
		return
	}

	published, err := services.PublishSchedule(r.Context(), h.Store, h.Publisher, h.Cfg, h.Logger, req.StartMonth, req.EndMonth)
	if err != nil {
		h.fail(w, "failed to publish schedule", err)
		return
	}

	resp := PublishResponse{Tab: published.TabTitle(), Columns: published.Columns, Rows: make([][]string, 0, len(published.Rows))}
	for _, row := range published.Rows {
		cells := append([]string{row.Date.Format(db.DateLayout)}, row.Cells...)
		resp.Rows = append(resp.Rows, append(cells, row.Holiday))
	}
	writeJSON(w, http.StatusOK, resp)
}

// BalanceReport handles GET /api/schedule/balance?start=YYYY-MM&end=YYYY-MM
func (h *Handler) BalanceReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := services.BalanceReport(r.Context(), h.Store, h.Cfg, h.Logger, q.Get("start"), q.Get("end"))
	if err != nil {
		h.fail(w, "failed to build balance report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListScheduleRuns handles GET /api/schedule/runs
func (h *Handler) ListScheduleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListScheduleRuns(r.Context())
	if err != nil {
		h.fail(w, "failed to list schedule runs", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTOs(runs))
}

// SetPreference handles PUT /api/employees/{id}/preferences
func (h *Handler) SetPreference(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id", err)
		return
	}

	var req PreferenceRequest
	if !decode(w, r, &req) {
		return
	}

	if err := services.SetDoubleDutyPreference(r.Context(), h.Store, h.Logger, id, *req.DoubleDuty); err != nil {
		h.fail(w, "failed to set preference", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employee_id": id, "double_duty": *req.DoubleDuty})
}

// ListSpecialDates handles GET /api/special-dates
func (h *Handler) ListSpecialDates(w http.ResponseWriter, r *http.Request) {
	dates, err := services.ListSpecialDates(r.Context(), h.Store, h.Logger)
	if err != nil {
		h.fail(w, "failed to list special dates", err)
		return
	}
	writeJSON(w, http.StatusOK, toSpecialDateDTOs(dates))
}

// AddSpecialDate handles POST /api/special-dates
func (h *Handler) AddSpecialDate(w http.ResponseWriter, r *http.Request) {
	var req SpecialDateDTO
	if !decode(w, r, &req) {
		return
	}

	added, err := services.AddSpecialDate(r.Context(), h.Store, h.Logger, req.Date, req.Description, req.Recurring)
	if err != nil {
		h.fail(w, "failed to add special date", err)
		return
	}
	writeJSON(w, http.StatusCreated, SpecialDateDTO{Date: added.Date, Description: added.Description, Recurring: added.Recurring})
}

// decode reads and validates a JSON body, writing a 400 on failure
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err)
		return false
	}
	return true
}

// fail maps service errors to a status
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	default:
		h.Logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
