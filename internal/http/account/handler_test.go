package account_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/kyat/internal/account"
	accountHandler "github.com/MrJamesThe3rd/kyat/internal/http/account"
	"github.com/MrJamesThe3rd/kyat/internal/http/auth"
)

func newRouter(userID uuid.UUID, h *accountHandler.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUserID(req.Context(), userID)))
		})
	})
	r.Get("/account-types", h.Types)
	r.Route("/accounts", h.Routes)

	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	return w
}

func TestHandler_Create(t *testing.T) {
	userID := uuid.New()

	type testCase struct {
		name       string
		body       string
		setupMock  func(m *account.MockRepository)
		wantStatus int
		wantError  string
	}

	tests := []testCase{
		{
			name: "Success",
			body: `{"name":"KBZ Savings","account_type":"BANK","account_sub_type":"KBZBANK","balance":250000}`,
			setupMock: func(m *account.MockRepository) {
				m.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, a *account.Account) error {
						assert.Equal(t, userID, a.UserID)
						assert.Equal(t, int64(250000), a.Balance)
						a.ID = uuid.New()
						a.CreatedAt = time.Now()

						return nil
					})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "ZeroBalanceByDefault",
			body: `{"name":"Cash","account_type":"WALLET","account_sub_type":"WALLET"}`,
			setupMock: func(m *account.MockRepository) {
				m.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, a *account.Account) error {
						assert.Zero(t, a.Balance)
						return nil
					})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "InvalidSubtype",
			body:       `{"name":"Cash","account_type":"WALLET","account_sub_type":"KBZPAY"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "invalid_subtype",
		},
		{
			name:       "FractionalBalance",
			body:       `{"name":"Cash","account_type":"WALLET","account_sub_type":"WALLET","balance":10.5}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "invalid_amount",
		},
		{
			name:       "MissingName",
			body:       `{"account_type":"WALLET","account_sub_type":"WALLET"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := account.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			h := newRouter(userID, accountHandler.NewHandler(account.NewService(repo, nil)))
			w := do(h, http.MethodPost, "/accounts", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantError != "" {
				var body map[string]string
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, tt.wantError, body["error"])
			}
		})
	}
}

func TestHandler_ListWithTotals(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()

	repo := account.NewMockRepository(ctrl)
	repo.EXPECT().ListAccounts(gomock.Any(), userID, true).Return([]*account.Account{{
		ID:      uuid.New(),
		Name:    "Cash",
		Type:    account.TypeWallet,
		SubType: account.SubTypeWallet,
		Balance: 1000,
		Totals:  &account.Totals{Income: 300, Expense: 100, DerivedBalance: 1200},
	}}, nil)

	h := newRouter(userID, accountHandler.NewHandler(account.NewService(repo, nil)))
	w := do(h, http.MethodGet, "/accounts?totals=true", "")

	require.Equal(t, http.StatusOK, w.Code)

	var body []map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.InDelta(t, 1200, body[0]["derived_balance"], 0)
	assert.InDelta(t, 300, body[0]["total_income"], 0)
}

func TestHandler_ListWithoutAccounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()

	repo := account.NewMockRepository(ctrl)
	repo.EXPECT().ListAccounts(gomock.Any(), userID, false).Return(nil, nil)

	h := newRouter(userID, accountHandler.NewHandler(account.NewService(repo, nil)))
	w := do(h, http.MethodGet, "/accounts", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_GetRenameDelete(t *testing.T) {
	userID, id := uuid.New(), uuid.New()

	t.Run("GetBadID", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		h := newRouter(userID, accountHandler.NewHandler(account.NewService(account.NewMockRepository(ctrl), nil)))
		assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/accounts/not-a-uuid", "").Code)
	})

	t.Run("GetForeign", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := account.NewMockRepository(ctrl)
		repo.EXPECT().GetAccount(gomock.Any(), userID, id).Return(nil, account.ErrNotFound)

		h := newRouter(userID, accountHandler.NewHandler(account.NewService(repo, nil)))
		assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/accounts/"+id.String(), "").Code)
	})

	t.Run("Rename", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := account.NewMockRepository(ctrl)
		repo.EXPECT().RenameAccount(gomock.Any(), userID, id, "Daily").
			Return(&account.Account{ID: id, Name: "Daily"}, nil)

		h := newRouter(userID, accountHandler.NewHandler(account.NewService(repo, nil)))
		w := do(h, http.MethodPatch, "/accounts/"+id.String(), `{"name":" Daily "}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"name":"Daily"`)
	})

	t.Run("Delete", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := account.NewMockRepository(ctrl)
		repo.EXPECT().DeleteAccount(gomock.Any(), userID, id).Return(int64(2), nil)

		h := newRouter(userID, accountHandler.NewHandler(account.NewService(repo, nil)))
		assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/accounts/"+id.String(), "").Code)
	})
}

func TestHandler_Types(t *testing.T) {
	h := newRouter(uuid.New(), accountHandler.NewHandler(nil))
	w := do(h, http.MethodGet, "/account-types", "")

	require.Equal(t, http.StatusOK, w.Code)

	var body []struct {
		Type     string   `json:"account_type"`
		SubTypes []string `json:"account_sub_types"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body, 3)
	assert.Equal(t, "WALLET", body[0].Type)
	assert.Equal(t, []string{"WALLET"}, body[0].SubTypes)
	assert.Contains(t, body[2].SubTypes, "WAVEPAY")
}
