package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Tx struct {
	s  *storage
	tx *sqlx.Tx

	actions []txAction
}

type txAction struct {
	action actionTypes
	obj    interface{}
}

type TxInterface interface {
	TXInsert(ctx context.Context, obj interface{}) error
	TXUpdate(ctx context.Context, obj interface{}) error
	TXDelete(ctx context.Context, obj interface{}) error

	// TXEnd commits the transaction and then takes the cache actions of everything written in it
	TXEnd(ctx context.Context) error
	// TXRollback aborts the transaction; the cache is left alone since nothing was written
	TXRollback(ctx context.Context) error

	// TxSelect is for fetching one row inside the transaction; it never reads from the cache
	TxSelect(ctx context.Context, obj interface{}, queryName string) error

	// TxSelectAll is for fetching all rows inside the transaction; it never reads from the cache
	TxSelectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string) error
}

func (s *storage) TXBegin(ctx context.Context) (TxInterface, error) {
	tx, err := s.db.writeConn().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &Tx{
		s:       s,
		tx:      tx,
		actions: []txAction{},
	}, nil
}

func (t *Tx) TXInsert(ctx context.Context, obj interface{}) error {
	err := t.s.insert(ctx, obj, t.tx)
	if err != nil {
		return err
	}

	t.actions = append(t.actions, txAction{
		action: actionInsert,
		obj:    obj,
	})
	return nil
}

func (t *Tx) TXUpdate(ctx context.Context, obj interface{}) error {
	err := t.s.update(ctx, obj, t.tx)
	if err != nil {
		return err
	}

	t.actions = append(t.actions, txAction{
		action: actionUpdate,
		obj:    obj,
	})
	return nil
}

func (t *Tx) TXDelete(ctx context.Context, obj interface{}) error {
	err := t.s.delete(ctx, obj, t.tx)
	if err != nil {
		return err
	}

	t.actions = append(t.actions, txAction{
		action: actionDelete,
		obj:    obj,
	})
	return nil
}

func (t *Tx) TxSelect(ctx context.Context, obj interface{}, queryName string) error {
	return t.s.selectOne(ctx, obj, queryName, t.tx, false)
}

func (t *Tx) TxSelectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string) error {
	return t.s.selectAll(ctx, obj, dest, queryName, t.tx, false)
}

func (t *Tx) TXEnd(ctx context.Context) error {
	err := t.tx.Commit()
	if err != nil {
		t.tx.Rollback()
		return err
	}

	var firstErr error
	for _, action := range t.actions {
		// keep going so every key gets a chance to be invalidated
		err = t.s.actionNonSelect(ctx, action.obj, action.action)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (t *Tx) TXRollback(ctx context.Context) error {
	err := t.tx.Rollback()
	if err != nil {
		return fmt.Errorf("storage: rollback: %w", err)
	}
	return nil
}
