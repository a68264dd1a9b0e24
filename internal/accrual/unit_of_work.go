// AngelaMos | 2026
// unit_of_work.go

package accrual

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/affiliate-backend/internal/affiliate"
	"github.com/carterperez-dev/affiliate-backend/internal/core"
	"github.com/carterperez-dev/affiliate-backend/internal/ledger"
)

// UnitOfWork runs fn atomically: either every write fn makes through the
// given repositories is kept or none is.
type UnitOfWork interface {
	Within(
		ctx context.Context,
		fn func(affiliates affiliate.Repository, entries ledger.Repository) error,
	) error
}

type sqlUnitOfWork struct {
	db *sqlx.DB
}

func NewSQLUnitOfWork(db *sqlx.DB) UnitOfWork {
	return &sqlUnitOfWork{db: db}
}

func (u *sqlUnitOfWork) Within(
	ctx context.Context,
	fn func(affiliates affiliate.Repository, entries ledger.Repository) error,
) error {
	return core.InTx(ctx, u.db, func(tx *sqlx.Tx) error {
		return fn(affiliate.NewRepository(tx), ledger.NewRepository(tx))
	})
}
