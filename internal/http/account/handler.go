package account

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/kyat/internal/account"
	"github.com/MrJamesThe3rd/kyat/internal/apperr"
	"github.com/MrJamesThe3rd/kyat/internal/http/api"
	"github.com/MrJamesThe3rd/kyat/internal/http/auth"
	"github.com/MrJamesThe3rd/kyat/internal/money"
)

type Handler struct {
	svc *account.Service
}

func NewHandler(svc *account.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.rename)
	r.Delete("/{id}", h.delete)
}

// Types serves the account type to subtype table.
func (h *Handler) Types(w http.ResponseWriter, r *http.Request) {
	resp := make([]accountTypeResponse, 0, len(account.Types()))
	for _, t := range account.Types() {
		resp = append(resp, accountTypeResponse{Type: t, SubTypes: account.SubTypes(t)})
	}

	api.JSON(w, http.StatusOK, resp)
}

type createAccountRequest struct {
	Name    string          `json:"name" validate:"required,max=100"`
	Type    account.Type    `json:"account_type" validate:"required"`
	SubType account.SubType `json:"account_sub_type" validate:"required"`
	Balance json.Number     `json:"balance"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, r, err)
		return
	}

	var balance int64

	if req.Balance != "" {
		b, err := money.ParseBalance(req.Balance.String())
		if err != nil {
			api.Error(w, r, err)
			return
		}

		balance = b
	}

	a, err := h.svc.Create(r.Context(), account.CreateParams{
		UserID:  auth.UserID(r.Context()),
		Name:    req.Name,
		Type:    req.Type,
		SubType: req.SubType,
		Balance: balance,
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusCreated, toResponse(a))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var withTotals bool

	if s := r.URL.Query().Get("totals"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			api.Error(w, r, fmt.Errorf("%w: totals must be true or false", apperr.ErrInvalid))
			return
		}

		withTotals = b
	}

	accounts, err := h.svc.List(r.Context(), auth.UserID(r.Context()), withTotals)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toResponseList(accounts))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		api.Error(w, r, err)
		return
	}

	a, err := h.svc.Get(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toResponse(a))
}

type renameAccountRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		api.Error(w, r, err)
		return
	}

	var req renameAccountRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, r, err)
		return
	}

	a, err := h.svc.Rename(r.Context(), auth.UserID(r.Context()), id, req.Name)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toResponse(a))
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
