package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"payme-merchant-gateway/internal/core/domain"
	"payme-merchant-gateway/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type opsTestDeps struct {
	svc     *OpsServiceImpl
	hashSvc *mocks.MockHashService
	tokens  *mocks.MockTokenService
	orders  *mocks.MockOrderRepository
	rates   *mocks.MockRateSource
	txRepo  *mocks.MockTransactionRepository
	ctrl    *gomock.Controller
}

func setupOpsService(t *testing.T) *opsTestDeps {
	ctrl := gomock.NewController(t)
	d := &opsTestDeps{
		hashSvc: mocks.NewMockHashService(ctrl),
		tokens:  mocks.NewMockTokenService(ctrl),
		orders:  mocks.NewMockOrderRepository(ctrl),
		rates:   mocks.NewMockRateSource(ctrl),
		txRepo:  mocks.NewMockTransactionRepository(ctrl),
		ctrl:    ctrl,
	}
	d.svc = NewOpsService(
		"admin", "$argon2id$encoded", "merchant123",
		d.hashSvc, d.tokens, d.orders, d.rates, d.txRepo,
		zerolog.Nop(),
	)
	return d
}

func TestOpsService_Login_Success(t *testing.T) {
	d := setupOpsService(t)
	defer d.ctrl.Finish()

	expiry := time.Now().Add(time.Hour)
	d.hashSvc.EXPECT().Verify("secret", "$argon2id$encoded").Return(true, nil)
	d.tokens.EXPECT().Generate("admin").Return("jwt-token", expiry, nil)

	token, exp, err := d.svc.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	assert.Equal(t, expiry, exp)
}

func TestOpsService_Login_WrongUsername(t *testing.T) {
	d := setupOpsService(t)
	defer d.ctrl.Finish()

	_, _, err := d.svc.Login(context.Background(), "intruder", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestOpsService_Login_WrongPassword(t *testing.T) {
	d := setupOpsService(t)
	defer d.ctrl.Finish()

	d.hashSvc.EXPECT().Verify("wrong", "$argon2id$encoded").Return(false, nil)

	_, _, err := d.svc.Login(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestOpsService_SetRate(t *testing.T) {
	d := setupOpsService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.rates.EXPECT().Set(ctx, 12900.0).Return(nil)
	require.NoError(t, d.svc.SetRate(ctx, 12900))

	assert.ErrorIs(t, d.svc.SetRate(ctx, 0), ErrInvalidRate)
	assert.ErrorIs(t, d.svc.SetRate(ctx, -5), ErrInvalidRate)
}

func TestOpsService_Rate(t *testing.T) {
	d := setupOpsService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.rates.EXPECT().Current(ctx).Return(12750.0, nil)

	rate, err := d.svc.Rate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12750.0, rate)
}

func TestOpsService_PaymentLink(t *testing.T) {
	d := setupOpsService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.orders.EXPECT().Resolve(ctx, "order_01").
		Return(&domain.Order{ID: "order_01", DisplayID: 1042, Total: 4500}, nil)
	d.rates.EXPECT().Current(ctx).Return(12750.0, nil)

	link, err := d.svc.PaymentLink(ctx, "order_01", "")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paycom.uz/merchant123?amount=57375000&account[order_id]=1042", link.URL)
	assert.Equal(t, int64(57375000), link.AmountTiyin)
	assert.Equal(t, int64(1042), link.DisplayID)
}

func TestOpsService_PaymentLink_WithCallback(t *testing.T) {
	d := setupOpsService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.orders.EXPECT().Resolve(ctx, "1042").
		Return(&domain.Order{ID: "order_01", DisplayID: 1042, Total: 4500}, nil)
	d.rates.EXPECT().Current(ctx).Return(12750.0, nil)

	link, err := d.svc.PaymentLink(ctx, "1042", "https://shop.example/thanks?o=1")
	require.NoError(t, err)
	assert.Contains(t, link.URL, "&callback=https%3A%2F%2Fshop.example%2Fthanks%3Fo%3D1")
}

func TestOpsService_PaymentLink_OrderMissing(t *testing.T) {
	d := setupOpsService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.orders.EXPECT().Resolve(ctx, "9999").Return(nil, nil)

	_, err := d.svc.PaymentLink(ctx, "9999", "")
	assert.ErrorIs(t, err, ErrOrderMissing)
}

func TestOpsService_ListTransactions(t *testing.T) {
	d := setupOpsService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().ListByCreateTime(ctx, int64(10), int64(20)).
		Return([]domain.Transaction{{PaymeID: "tx_1"}}, nil)

	txs, err := d.svc.ListTransactions(ctx, 10, 20)
	require.NoError(t, err)
	require.Len(t, txs, 1)
}

func TestOpsService_Login_HashFailure(t *testing.T) {
	d := setupOpsService(t)
	defer d.ctrl.Finish()

	d.hashSvc.EXPECT().Verify("secret", "$argon2id$encoded").Return(false, errors.New("bad hash encoding"))

	_, _, err := d.svc.Login(context.Background(), "admin", "secret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
