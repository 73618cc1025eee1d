package transaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/apperr"
	"github.com/MrJamesThe3rd/kyat/internal/attachment"
	"github.com/MrJamesThe3rd/kyat/internal/http/api"
	"github.com/MrJamesThe3rd/kyat/internal/http/auth"
	"github.com/MrJamesThe3rd/kyat/internal/money"
	"github.com/MrJamesThe3rd/kyat/internal/transaction"
)

const defaultPageSize = 10

// multipartOverhead is allowed on top of the attachment limit for headers
// and boundaries.
const multipartOverhead = 1 << 20

type Handler struct {
	svc         *transaction.Service
	attachments *attachment.Store
	loc         *time.Location
}

type Option func(*Handler)

// WithLocation sets the zone plain dates in list filters are read in.
func WithLocation(loc *time.Location) Option {
	return func(h *Handler) { h.loc = loc }
}

func NewHandler(svc *transaction.Service, attachments *attachment.Store, opts ...Option) *Handler {
	h := &Handler{svc: svc, attachments: attachments, loc: time.UTC}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/transfer", h.transfer)
	r.Get("/transfers/{groupId}", h.transferLegs)
	r.Post("/attachments", h.uploadAttachment)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createTransactionRequest struct {
	AccountID   uuid.UUID        `json:"account_id" validate:"required"`
	CategoryID  uuid.UUID        `json:"category_id" validate:"required"`
	Type        transaction.Type `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	Amount      json.Number      `json:"amount" validate:"required"`
	Remark      string           `json:"remark" validate:"required,max=255"`
	Description string           `json:"description" validate:"max=1000"`
	Attachment  string           `json:"attachment"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, r, err)
		return
	}

	amount, err := money.ParseAmount(req.Amount.String())
	if err != nil {
		api.Error(w, r, err)
		return
	}

	tx, err := h.svc.Post(r.Context(), transaction.PostParams{
		UserID:      auth.UserID(r.Context()),
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Type:        req.Type,
		Amount:      amount,
		Remark:      req.Remark,
		Description: req.Description,
		Attachment:  req.Attachment,
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusCreated, toResponse(tx))
}

type transferRequest struct {
	FromAccountID uuid.UUID   `json:"from_account_id" validate:"required"`
	ToAccountID   uuid.UUID   `json:"to_account_id" validate:"required"`
	Amount        json.Number `json:"amount" validate:"required"`
	Remark        string      `json:"remark" validate:"required,max=255"`
	Description   string      `json:"description" validate:"max=1000"`
	Attachment    string      `json:"attachment"`
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, r, err)
		return
	}

	amount, err := money.ParseAmount(req.Amount.String())
	if err != nil {
		api.Error(w, r, err)
		return
	}

	tr, err := h.svc.Transfer(r.Context(), transaction.TransferParams{
		UserID:      auth.UserID(r.Context()),
		FromID:      req.FromAccountID,
		ToID:        req.ToAccountID,
		Amount:      amount,
		Remark:      req.Remark,
		Description: req.Description,
		Attachment:  req.Attachment,
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusCreated, transferResponse{
		GroupID:  tr.GroupID,
		Outgoing: toResponse(tr.Outgoing),
		Incoming: toResponse(tr.Incoming),
	})
}

func (h *Handler) transferLegs(w http.ResponseWriter, r *http.Request) {
	groupID, err := api.PathID(r, "groupId")
	if err != nil {
		api.Error(w, r, err)
		return
	}

	legs, err := h.svc.TransferLegs(r.Context(), auth.UserID(r.Context()), groupID)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, legsResponse{
		GroupID:  legs.GroupID,
		Outgoing: toResponseList(legs.Outgoing),
		Incoming: toResponseList(legs.Incoming),
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r, h.loc)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	params.UserID = auth.UserID(r.Context())

	page, err := h.svc.List(r.Context(), params)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, pageResponse{
		Items:      toResponseList(page.Items),
		TotalCount: page.TotalCount,
		Page:       page.Page,
		TotalPages: page.TotalPages,
	})
}

func parseListParams(r *http.Request, loc *time.Location) (transaction.ListParams, error) {
	q := r.URL.Query()

	params := transaction.ListParams{
		Page:     1,
		PageSize: defaultPageSize,
		SortBy:   transaction.SortBy(q.Get("sort_by")),
	}

	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return params, fmt.Errorf("%w: page must be a number", apperr.ErrInvalid)
		}

		params.Page = n
	}

	if s := q.Get("page_size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return params, fmt.Errorf("%w: page_size must be a number", apperr.ErrInvalid)
		}

		params.PageSize = n
	}

	if s := q.Get("type"); s != "" {
		params.Type = new(transaction.Type(s))
	}

	if s := q.Get("from"); s != "" {
		t, err := parseTime(s, loc, false)
		if err != nil {
			return params, err
		}

		params.From = &t
	}

	if s := q.Get("to"); s != "" {
		t, err := parseTime(s, loc, true)
		if err != nil {
			return params, err
		}

		params.To = &t
	}

	return params, nil
}

// parseTime accepts RFC 3339 or a plain date in loc. A plain date used as an
// upper bound covers the whole day.
func parseTime(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a date", apperr.ErrInvalid, s)
	}

	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
	}

	return t, nil
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		api.Error(w, r, err)
		return
	}

	tx, err := h.svc.Get(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toResponse(tx))
}

type updateTransactionRequest struct {
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Remark      *string    `json:"remark,omitempty" validate:"omitnil,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitnil,max=1000"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		api.Error(w, r, err)
		return
	}

	var req updateTransactionRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, r, err)
		return
	}

	tx, err := h.svc.UpdateMetadata(r.Context(), auth.UserID(r.Context()), id, transaction.MetadataUpdate{
		CategoryID:  req.CategoryID,
		Remark:      req.Remark,
		Description: req.Description,
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toResponse(tx))
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

func (h *Handler) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.attachments.MaxBytes()+multipartOverhead)

	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, r, attachment.ErrTooLarge)
			return
		}

		api.Error(w, r, fmt.Errorf("%w: multipart field \"file\" is required", apperr.ErrInvalid))

		return
	}
	defer file.Close()

	name, err := h.attachments.Save(r.Context(), file)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusCreated, attachmentResponse{Attachment: name})
}
