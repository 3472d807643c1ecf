package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/sablepay/coffee-pos/pkg/data/payment"
	"github.com/sablepay/coffee-pos/pkg/database/query"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed payment.Store
func New(db *sql.DB) payment.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements payment.Store.Put
func (s *store) Put(ctx context.Context, record *payment.Record) error {
	obj, err := toModel(record)
	if err != nil {
		return err
	}

	err = obj.dbPut(ctx, s.db)
	if err != nil {
		return err
	}

	res := fromModel(obj)
	res.CopyTo(record)

	return nil
}

// Update implements payment.Store.Update
func (s *store) Update(ctx context.Context, record *payment.Record) error {
	obj, err := toModel(record)
	if err != nil {
		return err
	}

	err = obj.dbUpdate(ctx, s.db)
	if err != nil {
		return err
	}

	res := fromModel(obj)
	res.CopyTo(record)

	return nil
}

// Get implements payment.Store.Get
func (s *store) Get(ctx context.Context, paymentId string) (*payment.Record, error) {
	model, err := dbGetByPaymentId(ctx, s.db, paymentId)
	if err != nil {
		return nil, err
	}

	return fromModel(model), nil
}

// GetAll implements payment.Store.GetAll
func (s *store) GetAll(ctx context.Context, opts ...query.Option) ([]*payment.Record, error) {
	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	models, err := dbGetAll(ctx, s.db, req.Cursor, req.Limit, req.SortBy)
	if err != nil {
		return nil, err
	}

	var res []*payment.Record
	for _, model := range models {
		res = append(res, fromModel(model))
	}
	return res, nil
}

// CountByState implements payment.Store.CountByState
func (s *store) CountByState(ctx context.Context, state payment.State) (uint64, error) {
	return dbCountByState(ctx, s.db, state)
}
