package service

import (
	"context"
	"errors"
	"testing"

	"payme-merchant-gateway/internal/core/domain"
	"payme-merchant-gateway/internal/core/ports"
	"payme-merchant-gateway/internal/core/ports/mocks"
	"payme-merchant-gateway/pkg/merchanterr"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type merchantTestDeps struct {
	svc     *MerchantServiceImpl
	txRepo  *mocks.MockTransactionRepository
	amounts *mocks.MockAmountService
	creds   *mocks.MockCredentialStore
	capture *mocks.MockCaptureSink
	ctrl    *gomock.Controller
}

func setupMerchantService(t *testing.T) *merchantTestDeps {
	ctrl := gomock.NewController(t)
	d := &merchantTestDeps{
		txRepo:  mocks.NewMockTransactionRepository(ctrl),
		amounts: mocks.NewMockAmountService(ctrl),
		creds:   mocks.NewMockCredentialStore(ctrl),
		capture: mocks.NewMockCaptureSink(ctrl),
		ctrl:    ctrl,
	}
	d.svc = NewMerchantService(d.txRepo, d.amounts, d.creds, d.capture, 100, zerolog.Nop())
	d.svc.WithClock(func() int64 { return 1700000000000 })
	return d
}

func assertMerchantCode(t *testing.T, err error, code int) {
	t.Helper()
	var me *merchanterr.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, code, me.Code)
}

// ==================== CheckPerform ====================

func TestMerchantService_CheckPerform_Success(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.amounts.EXPECT().Validate(ctx, "1042", int64(57375000)).
		Return(&domain.Order{ID: "order_01", DisplayID: 1042, Total: 4500}, nil)

	err := d.svc.CheckPerform(ctx, ports.CheckPerformRequest{Amount: 57375000, OrderRef: "1042"})
	require.NoError(t, err)
}

func TestMerchantService_CheckPerform_BelowMinimum(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	err := d.svc.CheckPerform(context.Background(), ports.CheckPerformRequest{Amount: 99, OrderRef: "1042"})
	assertMerchantCode(t, err, merchanterr.CodeInvalidAmount)
}

func TestMerchantService_CheckPerform_MissingAccount(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	err := d.svc.CheckPerform(context.Background(), ports.CheckPerformRequest{Amount: 57375000})
	assertMerchantCode(t, err, merchanterr.CodeInvalidAccount)
}

func TestMerchantService_CheckPerform_OrderNotFound(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.amounts.EXPECT().Validate(ctx, "9999", int64(57375000)).
		Return(nil, merchanterr.ErrOrderNotFound())

	err := d.svc.CheckPerform(ctx, ports.CheckPerformRequest{Amount: 57375000, OrderRef: "9999"})
	assertMerchantCode(t, err, merchanterr.CodeOrderNotFound)
}

// ==================== Create ====================

func TestMerchantService_Create_Success(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().Get(ctx, "tx_abc").Return(nil, nil)
	d.amounts.EXPECT().Validate(ctx, "1042", int64(57375000)).
		Return(&domain.Order{ID: "order_01", DisplayID: 1042, Total: 4500}, nil)
	d.txRepo.EXPECT().PendingByOrder(ctx, "order_01").Return(nil, nil)
	d.txRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	tx, err := d.svc.Create(ctx, ports.CreateRequest{
		PaymeID: "tx_abc", Time: 1699999990000, Amount: 57375000, OrderRef: "1042",
	})
	require.NoError(t, err)
	assert.Equal(t, "tx_abc", tx.PaymeID)
	assert.Equal(t, domain.StateCreated, tx.State)
	assert.Equal(t, int64(1699999990000), tx.CreateTime)
	assert.Equal(t, "order_01", tx.OrderID)
	assert.Zero(t, tx.PerformTime)
	assert.Zero(t, tx.CancelTime)
}

func TestMerchantService_Create_ReplaySkipsValidation(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	existing := &domain.Transaction{
		PaymeID: "tx_abc", State: domain.StateCreated,
		CreateTime: 1699999990000, OrderID: "order_01",
	}
	// Only the replay lookup runs; no amount re-validation.
	d.txRepo.EXPECT().Get(ctx, "tx_abc").Return(existing, nil)

	tx, err := d.svc.Create(ctx, ports.CreateRequest{
		PaymeID: "tx_abc", Amount: 57375000, OrderRef: "1042",
	})
	require.NoError(t, err)
	assert.Equal(t, existing, tx)
}

func TestMerchantService_Create_ReplayOnPerformed(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().Get(ctx, "tx_abc").Return(&domain.Transaction{
		PaymeID: "tx_abc", State: domain.StatePerformed,
	}, nil)

	_, err := d.svc.Create(ctx, ports.CreateRequest{PaymeID: "tx_abc", Amount: 57375000, OrderRef: "1042"})
	assertMerchantCode(t, err, merchanterr.CodeAlreadyPaid)
}

func TestMerchantService_Create_OrderAlreadyPending(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().Get(ctx, "tx_new").Return(nil, nil)
	d.amounts.EXPECT().Validate(ctx, "1042", int64(57375000)).
		Return(&domain.Order{ID: "order_01", DisplayID: 1042, Total: 4500}, nil)
	d.txRepo.EXPECT().PendingByOrder(ctx, "order_01").Return(&domain.Transaction{
		PaymeID: "tx_other", State: domain.StateCreated, OrderID: "order_01",
	}, nil)

	_, err := d.svc.Create(ctx, ports.CreateRequest{PaymeID: "tx_new", Amount: 57375000, OrderRef: "1042"})
	assertMerchantCode(t, err, merchanterr.CodeOrderPending)
}

func TestMerchantService_Create_AmountMismatch(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().Get(ctx, "tx_abc").Return(nil, nil)
	d.amounts.EXPECT().Validate(ctx, "1042", int64(123)).
		Return(nil, merchanterr.ErrInvalidAmount())

	_, err := d.svc.Create(ctx, ports.CreateRequest{PaymeID: "tx_abc", Amount: 123, OrderRef: "1042"})
	assertMerchantCode(t, err, merchanterr.CodeInvalidAmount)
}

func TestMerchantService_Create_DefaultsCreateTime(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().Get(ctx, "tx_abc").Return(nil, nil)
	d.amounts.EXPECT().Validate(ctx, "1042", int64(57375000)).
		Return(&domain.Order{ID: "order_01"}, nil)
	d.txRepo.EXPECT().PendingByOrder(ctx, "order_01").Return(nil, nil)
	d.txRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	tx, err := d.svc.Create(ctx, ports.CreateRequest{PaymeID: "tx_abc", Amount: 57375000, OrderRef: "1042"})
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), tx.CreateTime)
}

func TestMerchantService_Create_StoreFailure(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().Get(ctx, "tx_abc").Return(nil, errors.New("connection refused"))

	_, err := d.svc.Create(ctx, ports.CreateRequest{PaymeID: "tx_abc", Amount: 57375000, OrderRef: "1042"})
	assertMerchantCode(t, err, merchanterr.CodeInternal)
}

// ==================== Perform ====================

func TestMerchantService_Perform_Success(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().Get(ctx, "tx_abc").Return(&domain.Transaction{
		PaymeID: "tx_abc", State: domain.StateCreated,
		CreateTime: 1699999990000, OrderID: "order_01",
	}, nil)
	d.txRepo.EXPECT().Update(ctx, gomock.Any()).Return(nil)
	d.capture.EXPECT().OrderPaid(ctx, gomock.Any()).Return(nil)

	tx, err := d.svc.Perform(ctx, "tx_abc")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePerformed, tx.State)
	assert.Equal(t, int64(1700000000000), tx.PerformTime)
}

func TestMerchantService_Perform_IdempotentReplay(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().Get(ctx, "tx_abc").Return(&domain.Transaction{
		PaymeID: "tx_abc", State: domain.StatePerformed,
		PerformTime: 1699999995000, OrderID: "order_01",
	}, nil)

	// No Update, no capture notification on replay.
	tx, err := d.svc.Perform(ctx, "tx_abc")
	require.NoError(t, err)
	assert.Equal(t, int64(1699999995000), tx.PerformTime)
}

func TestMerchantService_Perform_Cancelled(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().Get(ctx, "tx_abc").Return(&domain.Transaction{
		PaymeID: "tx_abc", State: domain.StateCancelledBefore,
	}, nil)

	_, err := d.svc.Perform(ctx, "tx_abc")
	assertMerchantCode(t, err, merchanterr.CodeTransactionCancelled)
}

func TestMerchantService_Perform_NotFound(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().Get(ctx, "tx_missing").Return(nil, nil)

	_, err := d.svc.Perform(ctx, "tx_missing")
	assertMerchantCode(t, err, merchanterr.CodeTransactionNotFound)
}

func TestMerchantService_Perform_CaptureFailureDoesNotFail(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().Get(ctx, "tx_abc").Return(&domain.Transaction{
		PaymeID: "tx_abc", State: domain.StateCreated, OrderID: "order_01",
	}, nil)
	d.txRepo.EXPECT().Update(ctx, gomock.Any()).Return(nil)
	d.capture.EXPECT().OrderPaid(ctx, gomock.Any()).Return(errors.New("shop unreachable"))

	tx, err := d.svc.Perform(ctx, "tx_abc")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePerformed, tx.State)
}

// ==================== Cancel ====================

func TestMerchantService_Cancel_BeforePerform(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()
	reason := 3

	d.txRepo.EXPECT().Get(ctx, "tx_abc").Return(&domain.Transaction{
		PaymeID: "tx_abc", State: domain.StateCreated, OrderID: "order_01",
	}, nil)
	d.txRepo.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	tx, err := d.svc.Cancel(ctx, ports.CancelRequest{PaymeID: "tx_abc", Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, domain.StateCancelledBefore, tx.State)
	assert.Equal(t, int64(1700000000000), tx.CancelTime)
	require.NotNil(t, tx.Reason)
	assert.Equal(t, 3, *tx.Reason)
}

func TestMerchantService_Cancel_AfterPerform(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()
	reason := 5

	d.txRepo.EXPECT().Get(ctx, "tx_abc").Return(&domain.Transaction{
		PaymeID: "tx_abc", State: domain.StatePerformed,
		PerformTime: 1699999995000, OrderID: "order_01",
	}, nil)
	d.txRepo.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	tx, err := d.svc.Cancel(ctx, ports.CancelRequest{PaymeID: "tx_abc", Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, domain.StateCancelledAfter, tx.State)
	assert.Equal(t, int64(1699999995000), tx.PerformTime)
}

func TestMerchantService_Cancel_IdempotentReplay(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()
	origReason := 3
	newReason := 7

	d.txRepo.EXPECT().Get(ctx, "tx_abc").Return(&domain.Transaction{
		PaymeID: "tx_abc", State: domain.StateCancelledBefore,
		CancelTime: 1699999997000, Reason: &origReason,
	}, nil)

	// No Update: cancel_time and reason stay as first stamped.
	tx, err := d.svc.Cancel(ctx, ports.CancelRequest{PaymeID: "tx_abc", Reason: &newReason})
	require.NoError(t, err)
	assert.Equal(t, int64(1699999997000), tx.CancelTime)
	assert.Equal(t, 3, *tx.Reason)
}

func TestMerchantService_Cancel_NotFound(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().Get(ctx, "tx_missing").Return(nil, nil)

	_, err := d.svc.Cancel(ctx, ports.CancelRequest{PaymeID: "tx_missing"})
	assertMerchantCode(t, err, merchanterr.CodeTransactionNotFound)
}

// ==================== Check / Statement ====================

func TestMerchantService_Check_Success(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().Get(ctx, "tx_abc").Return(&domain.Transaction{
		PaymeID: "tx_abc", State: domain.StatePerformed,
		CreateTime: 1, PerformTime: 2,
	}, nil)

	tx, err := d.svc.Check(ctx, "tx_abc")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePerformed, tx.State)
}

func TestMerchantService_Check_NotFound(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().Get(ctx, "tx_missing").Return(nil, nil)

	_, err := d.svc.Check(ctx, "tx_missing")
	assertMerchantCode(t, err, merchanterr.CodeTransactionNotFound)
}

func TestMerchantService_Statement(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().ListByCreateTime(ctx, int64(100), int64(200)).Return([]domain.Transaction{
		{PaymeID: "tx_1", State: domain.StatePerformed, CreateTime: 150},
		{PaymeID: "tx_2", State: domain.StateCancelledBefore, CreateTime: 180},
	}, nil)

	txs, err := d.svc.Statement(ctx, ports.StatementRequest{From: 100, To: 200})
	require.NoError(t, err)
	require.Len(t, txs, 2)
}

func TestMerchantService_Statement_Empty(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()
	ctx := context.Background()

	d.txRepo.EXPECT().ListByCreateTime(ctx, int64(500), int64(600)).Return(nil, nil)

	txs, err := d.svc.Statement(ctx, ports.StatementRequest{From: 500, To: 600})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

// ==================== ChangePassword ====================

func TestMerchantService_ChangePassword_Success(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	d.creds.EXPECT().Rotate("new-billing-secret")

	err := d.svc.ChangePassword(context.Background(), "new-billing-secret")
	require.NoError(t, err)
}

func TestMerchantService_ChangePassword_TooShort(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	err := d.svc.ChangePassword(context.Background(), "short")
	assertMerchantCode(t, err, merchanterr.CodeInternal)
}
