package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/sablepay/coffee-pos/pkg/data/payment"
	pgutil "github.com/sablepay/coffee-pos/pkg/database/postgres"
	q "github.com/sablepay/coffee-pos/pkg/database/query"
	"github.com/sablepay/coffee-pos/pkg/pointer"
)

const (
	tableName = "coffeepos__core_payment"

	allColumns = `id, payment_id, order_id, amount, item_count, payment_url, status, state, tx_hash, created_at, updated_at, expires_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	PaymentId string `db:"payment_id"`
	OrderId   string `db:"order_id"`

	Amount    decimal.Decimal `db:"amount"`
	ItemCount int64           `db:"item_count"`

	PaymentUrl string `db:"payment_url"`

	Status string         `db:"status"`
	State  uint8          `db:"state"`
	TxHash sql.NullString `db:"tx_hash"`

	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
	ExpiresAt sql.NullTime `db:"expires_at"`
}

func toModel(obj *payment.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		PaymentId: obj.PaymentId,
		OrderId:   obj.OrderId,

		Amount:    obj.Amount,
		ItemCount: int64(obj.ItemCount),

		PaymentUrl: obj.PaymentUrl,

		Status: obj.Status,
		State:  uint8(obj.State),
		TxHash: sql.NullString{
			Valid:  obj.TxHash != nil,
			String: *pointer.StringOrDefault(obj.TxHash, ""),
		},

		CreatedAt: obj.CreatedAt,
		UpdatedAt: obj.UpdatedAt,
		ExpiresAt: sql.NullTime{
			Valid: obj.ExpiresAt != nil,
			Time:  *pointer.TimeOrDefault(obj.ExpiresAt, time.Time{}),
		},
	}, nil
}

func fromModel(obj *model) *payment.Record {
	return &payment.Record{
		Id: uint64(obj.Id.Int64),

		PaymentId: obj.PaymentId,
		OrderId:   obj.OrderId,

		Amount:    obj.Amount,
		ItemCount: uint32(obj.ItemCount),

		PaymentUrl: obj.PaymentUrl,

		Status: obj.Status,
		State:  payment.State(obj.State),
		TxHash: pointer.StringIfValid(obj.TxHash.Valid, obj.TxHash.String),

		CreatedAt: obj.CreatedAt,
		UpdatedAt: obj.UpdatedAt,
		ExpiresAt: pointer.TimeIfValid(obj.ExpiresAt.Valid, obj.ExpiresAt.Time),
	}
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(payment_id, order_id, amount, item_count, payment_url, status, state, tx_hash, created_at, updated_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9, $10)
			RETURNING ` + allColumns

		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}

		return tx.QueryRowxContext(
			ctx,
			query,
			m.PaymentId,
			m.OrderId,
			m.Amount,
			m.ItemCount,
			m.PaymentUrl,
			m.Status,
			m.State,
			m.TxHash,
			m.CreatedAt,
			m.ExpiresAt,
		).StructScan(m)
	})
	return pgutil.CheckUniqueViolation(err, payment.ErrAlreadyExists)
}

// dbUpdate never touches a record in a terminal state. When no row is
// updated, a second query tells a missing record apart from a terminal one.
func (m *model) dbUpdate(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `UPDATE ` + tableName + `
			SET status = $2, state = $3, tx_hash = $4, updated_at = $5
			WHERE payment_id = $1 AND state NOT IN ($6, $7)
			RETURNING ` + allColumns

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.PaymentId,
			m.Status,
			m.State,
			m.TxHash,
			time.Now(),
			payment.StateSucceeded,
			payment.StateFailed,
		).StructScan(m)
		if !pgutil.IsNoRows(err) {
			return err
		}

		var exists bool
		err = tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM `+tableName+` WHERE payment_id = $1)`, m.PaymentId)
		if err != nil {
			return err
		} else if exists {
			return payment.ErrTerminal
		}
		return payment.ErrNotFound
	})
}

func dbGetByPaymentId(ctx context.Context, db *sqlx.DB, paymentId string) (*model, error) {
	var res model
	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE payment_id = $1
	`

	err := db.GetContext(ctx, &res, query, paymentId)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, payment.ErrNotFound)
	}
	return &res, nil
}

func dbGetAll(ctx context.Context, db *sqlx.DB, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*model, error) {
	res := []*model{}

	opts := []interface{}{}
	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE (TRUE)`
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, query, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, payment.ErrNotFound)
	} else if len(res) == 0 {
		return nil, payment.ErrNotFound
	}
	return res, nil
}

func dbCountByState(ctx context.Context, db *sqlx.DB, state payment.State) (uint64, error) {
	var res uint64
	query := `SELECT COUNT(*) FROM ` + tableName + `
		WHERE state = $1
	`

	err := db.GetContext(ctx, &res, query, state)
	if err != nil {
		return 0, err
	}
	return res, nil
}
