package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	committed   bool
	rolledBack  bool
	rollbackErr error
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	tx.rolledBack = true
	return tx.rollbackErr
}

type fakeBeginner struct {
	tx       *fakeTx
	opts     pgx.TxOptions
	beginErr error
}

func (b *fakeBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.opts = opts
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	return b.tx, nil
}

func TestWithTxCommits(t *testing.T) {
	conn := &fakeBeginner{tx: &fakeTx{}}
	require.NoError(t, WithTx(context.Background(), conn, SnapshotTx, func(pgx.Tx) error { return nil }))
	require.True(t, conn.tx.committed)
	require.False(t, conn.tx.rolledBack)
	require.Equal(t, pgx.ReadOnly, conn.opts.AccessMode)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	boom := errors.New("boom")
	conn := &fakeBeginner{tx: &fakeTx{}}
	err := WithTx(context.Background(), conn, WriteTx, func(pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.True(t, conn.tx.rolledBack)
	require.False(t, conn.tx.committed)
	require.Equal(t, pgx.Serializable, conn.opts.IsoLevel)

	conn = &fakeBeginner{tx: &fakeTx{rollbackErr: errors.New("conn lost")}}
	err = WithTx(context.Background(), conn, WriteTx, func(pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "conn lost")
}

func TestWithTxBeginFailure(t *testing.T) {
	conn := &fakeBeginner{beginErr: errors.New("refused")}
	err := WithTx(context.Background(), conn, WriteTx, func(pgx.Tx) error {
		t.Fatal("fn must not run")
		return nil
	})
	require.ErrorContains(t, err, "refused")
}
