package service

import (
	"context"
	"errors"
	"testing"

	"payme-merchant-gateway/internal/core/domain"
	"payme-merchant-gateway/internal/core/ports/mocks"
	"payme-merchant-gateway/pkg/merchanterr"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type amountTestDeps struct {
	svc    *AmountValidator
	orders *mocks.MockOrderRepository
	rates  *mocks.MockRateSource
	ctrl   *gomock.Controller
}

func setupAmountValidator(t *testing.T) *amountTestDeps {
	ctrl := gomock.NewController(t)
	d := &amountTestDeps{
		orders: mocks.NewMockOrderRepository(ctrl),
		rates:  mocks.NewMockRateSource(ctrl),
		ctrl:   ctrl,
	}
	d.svc = NewAmountValidator(d.orders, d.rates, zerolog.Nop())
	return d
}

func TestAmountValidator_ExactMatch(t *testing.T) {
	d := setupAmountValidator(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	// A $45.00 order at 12750 UZS/USD is exactly 57,375,000 tiyin.
	d.orders.EXPECT().Resolve(gomock.Any(), "1042").
		Return(&domain.Order{ID: "order_01", DisplayID: 1042, Total: 4500}, nil)
	d.rates.EXPECT().Current(ctx).Return(12750.0, nil)

	order, err := d.svc.Validate(ctx, "1042", 57375000)
	require.NoError(t, err)
	assert.Equal(t, "order_01", order.ID)
}

func TestAmountValidator_OffByOneTiyin(t *testing.T) {
	d := setupAmountValidator(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	for _, amount := range []int64{57374999, 57375001} {
		d.orders.EXPECT().Resolve(gomock.Any(), "1042").
			Return(&domain.Order{ID: "order_01", DisplayID: 1042, Total: 4500}, nil)
		d.rates.EXPECT().Current(ctx).Return(12750.0, nil)

		_, err := d.svc.Validate(ctx, "1042", amount)
		var me *merchanterr.Error
		require.ErrorAs(t, err, &me)
		assert.Equal(t, merchanterr.CodeInvalidAmount, me.Code)
	}
}

func TestAmountValidator_FractionalRateRounds(t *testing.T) {
	d := setupAmountValidator(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	// 4500 cents at 12749.5 rounds half away from zero to 57,372,750.
	d.orders.EXPECT().Resolve(gomock.Any(), "1042").
		Return(&domain.Order{ID: "order_01", Total: 4500}, nil)
	d.rates.EXPECT().Current(ctx).Return(12749.5, nil)

	_, err := d.svc.Validate(ctx, "1042", 57372750)
	require.NoError(t, err)
}

func TestAmountValidator_OrderNotFound(t *testing.T) {
	d := setupAmountValidator(t)
	defer d.ctrl.Finish()

	d.orders.EXPECT().Resolve(gomock.Any(), "9999").Return(nil, nil)

	_, err := d.svc.Validate(context.Background(), "9999", 57375000)
	var me *merchanterr.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, merchanterr.CodeOrderNotFound, me.Code)
}

func TestAmountValidator_LookupTimeout(t *testing.T) {
	d := setupAmountValidator(t)
	defer d.ctrl.Finish()

	d.orders.EXPECT().Resolve(gomock.Any(), "1042").Return(nil, context.DeadlineExceeded)

	_, err := d.svc.Validate(context.Background(), "1042", 57375000)
	var me *merchanterr.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, merchanterr.CodeUnableToPerform, me.Code)
}

func TestAmountValidator_LookupFailure(t *testing.T) {
	d := setupAmountValidator(t)
	defer d.ctrl.Finish()

	d.orders.EXPECT().Resolve(gomock.Any(), "1042").Return(nil, errors.New("connection reset"))

	_, err := d.svc.Validate(context.Background(), "1042", 57375000)
	var me *merchanterr.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, merchanterr.CodeInternal, me.Code)
}

func TestAmountValidator_RateFailure(t *testing.T) {
	d := setupAmountValidator(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.orders.EXPECT().Resolve(gomock.Any(), "1042").
		Return(&domain.Order{ID: "order_01", Total: 4500}, nil)
	d.rates.EXPECT().Current(ctx).Return(0.0, errors.New("redis down"))

	_, err := d.svc.Validate(ctx, "1042", 57375000)
	var me *merchanterr.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, merchanterr.CodeInternal, me.Code)
}
