// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/blinklabs-io/gargoyle/database/plugin/blob/badger"
	"github.com/blinklabs-io/gargoyle/database/plugin/metadata/sqlite"
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds the database configuration. An empty DataDir keeps all data
// in memory.
type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	DataDir      string
	// Zero intervals keep the store defaults. A negative VacuumInterval
	// disables vacuuming.
	GcInterval     time.Duration
	VacuumInterval time.Duration
	// AsyncWrites skips the fsync on op log commits
	AsyncWrites bool
}

// Database pairs the op log blob store with the relational projections
type Database struct {
	logger    *slog.Logger
	blob      *badger.BlobStoreBadger
	metadata  *sqlite.MetadataStoreSqlite
	dataDir   string
	commitSeq atomic.Uint64
}

// Blob returns the underling blob store instance
func (d *Database) Blob() *badger.BlobStoreBadger {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() *sqlite.MetadataStoreSqlite {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	// Close metadata
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	// Close blob
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

// New creates a new database instance with optional persistence using the provided data directory
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	logger = logger.With("component", "database")
	metadataDb, err := sqlite.New(
		sqlite.WithLogger(logger),
		sqlite.WithPromRegistry(cfg.PromRegistry),
		sqlite.WithDataDir(cfg.DataDir),
		sqlite.WithVacuumInterval(cfg.VacuumInterval),
	)
	if err != nil {
		if metadataDb != nil {
			_ = metadataDb.Close()
		}
		return nil, err
	}
	blobOpts := []badger.BlobStoreBadgerOptionFunc{
		badger.WithLogger(logger),
		badger.WithDataDir(cfg.DataDir),
		badger.WithSyncWrites(!cfg.AsyncWrites),
	}
	if cfg.GcInterval > 0 {
		blobOpts = append(blobOpts, badger.WithGcInterval(cfg.GcInterval))
	}
	if cfg.PromRegistry != nil {
		blobOpts = append(blobOpts, badger.WithPromRegistry(cfg.PromRegistry))
	}
	blobDb, err := badger.New(blobOpts...)
	if err != nil {
		_ = metadataDb.Close()
		return nil, err
	}
	db := &Database{
		logger:   logger,
		blob:     blobDb,
		metadata: metadataDb,
		dataDir:  cfg.DataDir,
	}
	if err := db.loadCommitMarker(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}
