package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "apertura/pkg/domain-errors"
	txcontext "apertura/pkg/platform/tx"
)

const defaultSolicitudTxTimeout = 5 * time.Second

// solicitudPostgresTx joins the aggregate write and its compliance record in
// one database transaction carried by the context.
type solicitudPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newSolicitudPostgresTx(db *sql.DB) *solicitudPostgresTx {
	return &solicitudPostgresTx{db: db}
}

func (t *solicitudPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultSolicitudTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return txcontext.Run(ctx, t.db, func(ctx context.Context, _ *sql.Tx) error {
		return fn(ctx)
	})
}
