package database

import (
	"context"
	"fmt"
)

type txKey struct{}

// From returns the transaction carried by ctx, or conn when there is none.
func From(ctx context.Context, conn Connection) Executor {
	if tx, ok := ctx.Value(txKey{}).(Tx); ok {
		return tx
	}
	return conn
}

// WithinTx runs fn inside a transaction. A transaction already carried by
// ctx is joined rather than nested; only the outermost call commits.
func WithinTx(ctx context.Context, conn Connection, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(Tx); ok {
		return fn(ctx)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
