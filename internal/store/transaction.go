package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var errTxDone = errors.New("transaction already finished")

type txKey struct{}

// Tx is the transaction carried on a context. Stores pick it up through
// FromContext so one service call can span several stores.
type Tx struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func txFrom(ctx context.Context) (*Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*Tx)
	return tx, ok && tx != nil
}

// Commit commits the context transaction, if any. The returned context no
// longer carries it.
func Commit(ctx context.Context) (context.Context, error) {
	tx, ok := txFrom(ctx)
	if !ok {
		return ctx, nil
	}
	return context.WithValue(ctx, txKey{}, nil), tx.finish("commit", func(db *gorm.DB) *gorm.DB { return db.Commit() })
}

// Rollback rolls the context transaction back. Calling it after Commit is a
// no-op, so it is safe to defer.
func Rollback(ctx context.Context) (context.Context, error) {
	tx, ok := txFrom(ctx)
	if !ok {
		return ctx, nil
	}
	if tx.db == nil {
		return context.WithValue(ctx, txKey{}, nil), nil
	}
	return context.WithValue(ctx, txKey{}, nil), tx.finish("rollback", func(db *gorm.DB) *gorm.DB { return db.Rollback() })
}

// FromContext returns the open transaction on ctx or nil.
func FromContext(ctx context.Context) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx.db
	}
	return nil
}

// newTransactionContext begins a transaction unless ctx already carries
// one, in which case the caller joins it.
func newTransactionContext(ctx context.Context, db *gorm.DB, log logrus.FieldLogger) (context.Context, error) {
	if _, ok := txFrom(ctx); ok {
		return ctx, nil
	}

	begun := db.Session(&gorm.Session{Context: ctx}).Begin()
	if begun.Error != nil {
		return ctx, begun.Error
	}

	fields := logrus.Fields{"tx": uuid.NewString()[:8]}
	if db.Dialector.Name() == "postgres" {
		// txid_current is only unique until postgres wraps it around
		var txid struct{ ID int64 }
		begun.Raw("select txid_current() as id").Scan(&txid)
		fields["pg_txid"] = txid.ID
	}

	return context.WithValue(ctx, txKey{}, &Tx{db: begun, log: log.WithFields(fields)}), nil
}

func (t *Tx) finish(op string, fn func(db *gorm.DB) *gorm.DB) error {
	if t.db == nil {
		return errTxDone
	}
	if err := fn(t.db).Error; err != nil {
		t.log.Errorf("failed to %s transaction: %v", op, err)
		return err
	}
	t.db = nil
	t.log.Debugf("transaction %s done", op)
	return nil
}
