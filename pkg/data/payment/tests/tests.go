package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablepay/coffee-pos/pkg/data/payment"
	"github.com/sablepay/coffee-pos/pkg/database/query"
	"github.com/sablepay/coffee-pos/pkg/pointer"
	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

func RunTests(t *testing.T, s payment.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s payment.Store){
		testHappyPath,
		testTerminalRecordsAreFinal,
		testValidation,
		testCounting,
		testPaging,
	} {
		tf(t, s)
		teardown()
	}
}

func newRecord(paymentId string) *payment.Record {
	return &payment.Record{
		PaymentId:  paymentId,
		OrderId:    "order_" + paymentId,
		Amount:     decimal.RequireFromString("3.50"),
		ItemCount:  3,
		PaymentUrl: "https://pay.sablepay.io/p/" + paymentId,
		Status:     sablepay.StatusPending,
		State:      payment.StatePending,
		ExpiresAt:  pointer.Time(time.Now().Add(15 * time.Minute).UTC().Truncate(time.Second)),
	}
}

func testHappyPath(t *testing.T, s payment.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()
		start := time.Now()
		time.Sleep(time.Millisecond)

		record := newRecord("pay_1")
		cloned := record.Clone()

		_, err := s.Get(ctx, record.PaymentId)
		assert.Equal(t, payment.ErrNotFound, err)
		assert.Equal(t, payment.ErrNotFound, s.Update(ctx, record))

		require.NoError(t, s.Put(ctx, record))
		assert.Equal(t, payment.ErrAlreadyExists, s.Put(ctx, record))
		assert.True(t, record.Id > 0)

		actual, err := s.Get(ctx, record.PaymentId)
		require.NoError(t, err)
		assert.True(t, actual.Id > 0)
		assert.True(t, actual.CreatedAt.After(start))
		assertEquivalentRecords(t, &cloned, actual)

		record.Status = sablepay.StatusProcessing
		require.NoError(t, s.Update(ctx, record))

		actual, err = s.Get(ctx, record.PaymentId)
		require.NoError(t, err)
		assert.Equal(t, sablepay.StatusProcessing, actual.Status)
		assert.Equal(t, payment.StatePending, actual.State)

		record.Status = sablepay.StatusCompleted
		record.State = payment.StateSucceeded
		record.TxHash = pointer.String("0xabc")
		cloned = record.Clone()
		require.NoError(t, s.Update(ctx, record))

		actual, err = s.Get(ctx, record.PaymentId)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)
		assert.False(t, actual.UpdatedAt.Before(actual.CreatedAt))
	})
}

func testTerminalRecordsAreFinal(t *testing.T, s payment.Store) {
	t.Run("testTerminalRecordsAreFinal", func(t *testing.T) {
		ctx := context.Background()

		record := newRecord("pay_1")
		require.NoError(t, s.Put(ctx, record))

		record.Status = sablepay.StatusExpired
		record.State = payment.StateFailed
		require.NoError(t, s.Update(ctx, record))

		record.Status = sablepay.StatusCompleted
		record.State = payment.StateSucceeded
		assert.Equal(t, payment.ErrTerminal, s.Update(ctx, record))

		actual, err := s.Get(ctx, record.PaymentId)
		require.NoError(t, err)
		assert.Equal(t, sablepay.StatusExpired, actual.Status)
		assert.Equal(t, payment.StateFailed, actual.State)
	})
}

func testValidation(t *testing.T, s payment.Store) {
	t.Run("testValidation", func(t *testing.T) {
		ctx := context.Background()

		for _, mutate := range []func(r *payment.Record){
			func(r *payment.Record) { r.PaymentId = "" },
			func(r *payment.Record) { r.OrderId = "" },
			func(r *payment.Record) { r.Amount = decimal.Zero },
			func(r *payment.Record) { r.Amount = decimal.NewFromInt(-1) },
			func(r *payment.Record) { r.Status = "" },
			func(r *payment.Record) { r.State = payment.StateUnknown },
			func(r *payment.Record) { r.State = payment.StateSucceeded },
			func(r *payment.Record) { r.TxHash = pointer.String("") },
		} {
			record := newRecord("pay_invalid")
			mutate(record)
			assert.Error(t, s.Put(ctx, record))
		}

		_, err := s.Get(ctx, "pay_invalid")
		assert.Equal(t, payment.ErrNotFound, err)
	})
}

func testCounting(t *testing.T, s payment.Store) {
	t.Run("testCounting", func(t *testing.T) {
		ctx := context.Background()

		for i, status := range []string{
			sablepay.StatusPending,
			sablepay.StatusProcessing,
			sablepay.StatusCompleted,
			sablepay.StatusConfirmed,
			sablepay.StatusCompleted,
			sablepay.StatusFailed,
		} {
			record := newRecord(fmt.Sprintf("pay_%d", i))
			record.Status = status
			record.State = payment.StateFromStatus(status)
			require.NoError(t, s.Put(ctx, record))
		}

		count, err := s.CountByState(ctx, payment.StatePending)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		count, err = s.CountByState(ctx, payment.StateSucceeded)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)

		count, err = s.CountByState(ctx, payment.StateFailed)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		count, err = s.CountByState(ctx, payment.StateUnknown)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})
}

func testPaging(t *testing.T, s payment.Store) {
	t.Run("testPaging", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAll(ctx)
		assert.Equal(t, payment.ErrNotFound, err)

		var records []*payment.Record
		for i := 0; i < 10; i++ {
			record := newRecord(fmt.Sprintf("pay_%d", i))
			require.NoError(t, s.Put(ctx, record))
			records = append(records, record)
		}

		actual, err := s.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, actual, 10)
		for i, record := range actual {
			assert.Equal(t, records[i].PaymentId, record.PaymentId)
		}

		actual, err = s.GetAll(ctx, query.WithLimit(3))
		require.NoError(t, err)
		require.Len(t, actual, 3)
		assert.Equal(t, "pay_2", actual[2].PaymentId)

		actual, err = s.GetAll(ctx, query.WithLimit(3), query.WithCursor(query.ToCursor(actual[2].Id)))
		require.NoError(t, err)
		require.Len(t, actual, 3)
		assert.Equal(t, "pay_3", actual[0].PaymentId)
		assert.Equal(t, "pay_5", actual[2].PaymentId)

		actual, err = s.GetAll(ctx, query.WithDirection(query.Descending), query.WithLimit(2))
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "pay_9", actual[0].PaymentId)
		assert.Equal(t, "pay_8", actual[1].PaymentId)

		actual, err = s.GetAll(ctx, query.WithDirection(query.Descending), query.WithCursor(query.ToCursor(records[1].Id)))
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assert.Equal(t, "pay_0", actual[0].PaymentId)

		_, err = s.GetAll(ctx, query.WithCursor(query.ToCursor(records[9].Id)))
		assert.Equal(t, payment.ErrNotFound, err)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *payment.Record) {
	assert.Equal(t, obj1.PaymentId, obj2.PaymentId)
	assert.Equal(t, obj1.OrderId, obj2.OrderId)
	assert.True(t, obj1.Amount.Equal(obj2.Amount))
	assert.Equal(t, obj1.ItemCount, obj2.ItemCount)
	assert.Equal(t, obj1.PaymentUrl, obj2.PaymentUrl)
	assert.Equal(t, obj1.Status, obj2.Status)
	assert.Equal(t, obj1.State, obj2.State)
	assert.EqualValues(t, obj1.TxHash, obj2.TxHash)
	require.Equal(t, obj1.ExpiresAt == nil, obj2.ExpiresAt == nil)
	if obj1.ExpiresAt != nil {
		assert.Equal(t, obj1.ExpiresAt.Unix(), obj2.ExpiresAt.Unix())
	}
}
