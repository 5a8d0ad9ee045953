// Package ignite provides a high-performance key/value data store
// designed for fast read and write operations, inspired by Bitcask.
// It combines an in-memory sorted key directory (internal/index) with an
// append-only log structure on disk (internal/bitcask) and a
// snapshot-isolated transaction layer (internal/mvcc) to achieve high
// throughput without sacrificing consistency. It is designed for
// applications requiring fast read and write operations, such as caching,
// session management, and real-time data processing.
package ignite

import (
	"context"

	"github.com/iamNilotpal/ignitedb/internal/bitcask"
	"github.com/iamNilotpal/ignitedb/internal/engine"
	"github.com/iamNilotpal/ignitedb/internal/mvcc"
	"github.com/iamNilotpal/ignitedb/pkg/logger"
	"github.com/iamNilotpal/ignitedb/pkg/options"
	"go.uber.org/zap"
)

// Instance is the primary entry point for interacting with the Ignite
// store. Every Set, Get, and Delete runs inside its own auto-committing
// transaction; callers that need several operations to succeed or fail
// together should use Begin directly.
type Instance struct {
	store   *bitcask.Store
	txns    *mvcc.MVCC
	options *options.Options
	log     *zap.SugaredLogger
}

// NewInstance creates and initializes a new Ignite DB instance, recovering
// any existing data under the configured storage path.
func NewInstance(ctx context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)

	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	store, err := bitcask.Open(ctx, &bitcask.Config{Logger: log, Options: &defaultOpts})
	if err != nil {
		return nil, err
	}

	return &Instance{
		store:   store,
		txns:    mvcc.New(store, log),
		options: &defaultOpts,
		log:     log,
	}, nil
}

// Set stores a key-value pair in the database. If the key already exists,
// its value is updated. The write is committed once this call returns
// successfully; whether it has been fsynced by then depends on the
// configured SyncStrategy.
func (i *Instance) Set(ctx context.Context, key string, value []byte) error {
	txn, err := i.txns.Begin()
	if err != nil {
		return err
	}
	if err := txn.Set([]byte(key), value); err != nil {
		_ = txn.Rollback()
		return err
	}
	return txn.Commit()
}

// Get retrieves the value associated with the given key, reading the
// latest committed snapshot.
func (i *Instance) Get(ctx context.Context, key string) ([]byte, bool, error) {
	txn, err := i.txns.BeginReadOnly()
	if err != nil {
		return nil, false, err
	}
	defer txn.Commit()
	return txn.Get([]byte(key))
}

// Delete removes a key-value pair from the database. The operation writes
// a deletion version for the key; the key's earlier versions stay stored
// alongside it.
func (i *Instance) Delete(ctx context.Context, key string) error {
	txn, err := i.txns.Begin()
	if err != nil {
		return err
	}
	if err := txn.Delete([]byte(key)); err != nil {
		_ = txn.Rollback()
		return err
	}
	return txn.Commit()
}

// Begin starts an explicit read-write transaction spanning multiple
// operations.
func (i *Instance) Begin() (*mvcc.Transaction, error) {
	return i.txns.Begin()
}

// BeginReadOnly starts an explicit read-only transaction pinned to the
// latest committed snapshot.
func (i *Instance) BeginReadOnly() (*mvcc.Transaction, error) {
	return i.txns.BeginReadOnly()
}

// Status reports the underlying engine's size accounting.
func (i *Instance) Status() (engine.Status, error) {
	return i.store.Status()
}

// Close gracefully shuts down the Ignite DB instance, releasing all
// associated resources and ensuring data durability.
func (i *Instance) Close(ctx context.Context) error {
	if err := i.store.Flush(); err != nil {
		return err
	}
	return i.store.Close()
}
