package account_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/kyat/internal/account"
	"github.com/MrJamesThe3rd/kyat/internal/apperr"
)

func TestValidSubType(t *testing.T) {
	tests := []struct {
		typ     account.Type
		subType account.SubType
		want    bool
	}{
		{account.TypeWallet, account.SubTypeWallet, true},
		{account.TypeWallet, account.SubTypeKBZBank, false},
		{account.TypeBank, account.SubTypeKBZBank, true},
		{account.TypeBank, account.SubTypeOtherBank, true},
		{account.TypeBank, account.SubTypeWavePay, false},
		{account.TypePay, account.SubTypeOKDollar, true},
		{account.TypePay, account.SubTypeWallet, false},
		{account.Type("CRYPTO"), account.SubTypeWallet, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+string(tt.subType), func(t *testing.T) {
			assert.Equal(t, tt.want, account.ValidSubType(tt.typ, tt.subType))
		})
	}
}

func TestSubTypes(t *testing.T) {
	assert.Len(t, account.SubTypes(account.TypeWallet), 1)
	assert.Len(t, account.SubTypes(account.TypeBank), 6)
	assert.Len(t, account.SubTypes(account.TypePay), 6)
	assert.Empty(t, account.SubTypes(account.Type("CRYPTO")))

	// Callers must not be able to mutate the table.
	bank := account.SubTypes(account.TypeBank)
	bank[0] = account.SubTypeWavePay
	assert.False(t, account.ValidSubType(account.TypeBank, account.SubTypeWavePay))
}

func TestService_Create(t *testing.T) {
	userID := uuid.New()

	type testCase struct {
		name      string
		params    account.CreateParams
		setupMock func(m *account.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			params: account.CreateParams{
				UserID:  userID,
				Name:    " Daily wallet ",
				Type:    account.TypeWallet,
				SubType: account.SubTypeWallet,
				Balance: 1000,
			},
			setupMock: func(m *account.MockRepository) {
				m.EXPECT().
					CreateAccount(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, a *account.Account) error {
						assert.Equal(t, "Daily wallet", a.Name)
						assert.Equal(t, int64(1000), a.Balance)
						a.ID = uuid.New()
						a.CreatedAt = time.Now()
						return nil
					})
			},
		},
		{
			name: "InvalidSubtype",
			params: account.CreateParams{
				UserID:  userID,
				Name:    "Savings",
				Type:    account.TypeBank,
				SubType: account.SubTypeWavePay,
			},
			wantErr: apperr.ErrInvalidSubtype,
		},
		{
			name: "UnknownTypeAlwaysFails",
			params: account.CreateParams{
				UserID:  userID,
				Name:    "Gold",
				Type:    account.Type("GOLD"),
				SubType: account.SubTypeWallet,
			},
			wantErr: apperr.ErrInvalidSubtype,
		},
		{
			name: "NegativeBalance",
			params: account.CreateParams{
				UserID:  userID,
				Name:    "Wallet",
				Type:    account.TypeWallet,
				SubType: account.SubTypeWallet,
				Balance: -1,
			},
			wantErr: apperr.ErrInvalidAmount,
		},
		{
			name: "EmptyName",
			params: account.CreateParams{
				UserID:  userID,
				Name:    "  ",
				Type:    account.TypeWallet,
				SubType: account.SubTypeWallet,
			},
			wantErr: apperr.ErrInvalid,
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

			svc := account.NewService(repo, nil)
			got, err := svc.Create(context.Background(), tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
			assert.Equal(t, userID, got.UserID)
		})
	}
}

func TestService_List(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name      string
		setupMock func(m *account.MockRepository)
		wantLen   int
		wantErr   error
	}{
		{
			name: "WithTotals",
			setupMock: func(m *account.MockRepository) {
				m.EXPECT().
					ListAccounts(gomock.Any(), userID, true).
					Return([]*account.Account{
						{ID: uuid.New(), Balance: 750, Totals: &account.Totals{Income: 50, Expense: 300, DerivedBalance: 500}},
						{ID: uuid.New()},
					}, nil)
			},
			wantLen: 2,
		},
		{
			name: "NoAccounts",
			setupMock: func(m *account.MockRepository) {
				m.EXPECT().ListAccounts(gomock.Any(), userID, true).Return(nil, nil)
			},
			wantErr: account.ErrNoAccounts,
		},
		{
			name: "RepoError",
			setupMock: func(m *account.MockRepository) {
				m.EXPECT().ListAccounts(gomock.Any(), userID, true).Return(nil, errors.New("db down"))
			},
			wantErr: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := account.NewMockRepository(ctrl)
			tt.setupMock(repo)

			got, err := account.NewService(repo, nil).List(context.Background(), userID, true)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())

				return
			}

			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestService_NoAccountsIsNotFound(t *testing.T) {
	assert.ErrorIs(t, account.ErrNoAccounts, apperr.ErrNotFound)
	assert.ErrorIs(t, account.ErrNotFound, apperr.ErrNotFound)
}

func TestService_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID, id := uuid.New(), uuid.New()

	repo := account.NewMockRepository(ctrl)
	repo.EXPECT().GetAccount(gomock.Any(), userID, id).Return(nil, account.ErrNotFound)

	_, err := account.NewService(repo, nil).Get(context.Background(), userID, id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_Rename(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID, id := uuid.New(), uuid.New()

	repo := account.NewMockRepository(ctrl)
	repo.EXPECT().
		RenameAccount(gomock.Any(), userID, id, "Lifestyle").
		Return(&account.Account{ID: id, UserID: userID, Name: "Lifestyle"}, nil)

	svc := account.NewService(repo, nil)

	got, err := svc.Rename(context.Background(), userID, id, " Lifestyle ")
	require.NoError(t, err)
	assert.Equal(t, "Lifestyle", got.Name)

	_, err = svc.Rename(context.Background(), userID, id, "")
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestService_Delete(t *testing.T) {
	userID, id := uuid.New(), uuid.New()

	tests := []struct {
		name      string
		setupMock func(m *account.MockRepository)
		wantErr   error
	}{
		{
			name: "RemovesTransactions",
			setupMock: func(m *account.MockRepository) {
				m.EXPECT().DeleteAccount(gomock.Any(), userID, id).Return(int64(3), nil)
			},
		},
		{
			name: "NotFound",
			setupMock: func(m *account.MockRepository) {
				m.EXPECT().DeleteAccount(gomock.Any(), userID, id).Return(int64(0), account.ErrNotFound)
			},
			wantErr: apperr.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := account.NewMockRepository(ctrl)
			tt.setupMock(repo)

			err := account.NewService(repo, nil).Delete(context.Background(), userID, id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}
