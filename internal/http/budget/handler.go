package budget

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/budget"
	"github.com/MrJamesThe3rd/kyat/internal/http/api"
	"github.com/MrJamesThe3rd/kyat/internal/http/auth"
	"github.com/MrJamesThe3rd/kyat/internal/money"
)

type Handler struct {
	svc *budget.Service
}

func NewHandler(svc *budget.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.track)
	r.Patch("/{id}", h.edit)
	r.Delete("/{id}", h.delete)
}

type createBudgetRequest struct {
	CategoryID   uuid.UUID   `json:"category_id" validate:"required"`
	Amount       json.Number `json:"amount" validate:"required"`
	Notification bool        `json:"notification"`
	Percentage   *int        `json:"percentage" validate:"omitnil,gte=0,lte=100"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, r, err)
		return
	}

	amount, err := money.ParseAmount(req.Amount.String())
	if err != nil {
		api.Error(w, r, err)
		return
	}

	b, err := h.svc.Create(r.Context(), budget.CreateParams{
		UserID:       auth.UserID(r.Context()),
		CategoryID:   req.CategoryID,
		Amount:       amount,
		Notification: req.Notification,
		Percentage:   req.Percentage,
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusCreated, toBudgetResponse(b))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tracked, err := h.svc.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		api.Error(w, r, err)
		return
	}

	resp := make([]trackingResponse, len(tracked))
	for i, t := range tracked {
		resp[i] = toTrackingResponse(t)
	}

	api.JSON(w, http.StatusOK, resp)
}

func (h *Handler) track(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		api.Error(w, r, err)
		return
	}

	t, err := h.svc.Track(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toTrackingResponse(t))
}

type editBudgetRequest struct {
	Notification *bool `json:"notification,omitempty"`
	Percentage   *int  `json:"percentage,omitempty" validate:"omitnil,gte=0,lte=100"`
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		api.Error(w, r, err)
		return
	}

	var req editBudgetRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, r, err)
		return
	}

	b, err := h.svc.Edit(r.Context(), auth.UserID(r.Context()), id, budget.EditParams{
		Notification: req.Notification,
		Percentage:   req.Percentage,
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toBudgetResponse(b))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		api.Error(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), auth.UserID(r.Context()), id); err != nil {
		api.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
