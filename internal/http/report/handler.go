package report

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/kyat/internal/apperr"
	"github.com/MrJamesThe3rd/kyat/internal/http/api"
	"github.com/MrJamesThe3rd/kyat/internal/http/auth"
	"github.com/MrJamesThe3rd/kyat/internal/report"
)

type Handler struct {
	svc *report.Service
}

func NewHandler(svc *report.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/expense-usage", h.expenseUsage)
	r.Get("/statements/{year}/{month}", h.statement)
}

type bucketResponse struct {
	Key   string `json:"key"`
	Total int64  `json:"total"`
}

type usageResponse struct {
	TimeFrame    report.TimeFrame `json:"time_frame"`
	TotalExpense int64            `json:"total_expense"`
	Breakdown    []bucketResponse `json:"breakdown"`
}

func (h *Handler) expenseUsage(w http.ResponseWriter, r *http.Request) {
	frame := report.TimeFrame(r.URL.Query().Get("time_frame"))
	if frame == "" {
		frame = report.TimeFrameMonthly
	}

	usage, err := h.svc.ExpenseUsage(r.Context(), auth.UserID(r.Context()), frame)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	resp := usageResponse{
		TimeFrame:    usage.TimeFrame,
		TotalExpense: usage.TotalExpense,
		Breakdown:    make([]bucketResponse, len(usage.Breakdown)),
	}
	for i, b := range usage.Breakdown {
		resp.Breakdown[i] = bucketResponse{Key: b.Key, Total: b.Total}
	}

	api.JSON(w, http.StatusOK, resp)
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		api.Error(w, r, fmt.Errorf("%w: year must be a number", apperr.ErrInvalid))
		return
	}

	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		api.Error(w, r, fmt.Errorf("%w: month must be a number", apperr.ErrInvalid))
		return
	}

	data, err := h.svc.MonthlyStatement(r.Context(), auth.UserID(r.Context()), year, month)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", report.StatementContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+report.StatementFileName(year, month))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))

	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write statement", "error", err)
	}
}
