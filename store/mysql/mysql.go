// Package mysql provides a checkpoint store backed by a MySQL table. The
// table needs a unique checkpoint_key column and a sequence_number column.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	// this is the mysql package so it makes sense to be here
	_ "github.com/go-sql-driver/mysql"
)

const getCheckpointQuery = `SELECT sequence_number FROM %s WHERE checkpoint_key = ?`

const upsertCheckpointQuery = `INSERT INTO %s (sequence_number, checkpoint_key) VALUES (?, ?) ON DUPLICATE KEY UPDATE sequence_number = ?`

// Option is used to override defaults when creating a new Store
type Option func(*Store)

// WithConnection overrides the default database handle
func WithConnection(conn *sql.DB) Option {
	return func(s *Store) {
		s.conn = conn
	}
}

// New returns a checkpoint store that uses a MySQL table for underlying
// storage. Using connectionStr makes it flexible to use specific db
// configs.
func New(appName, tableName, connectionStr string, opts ...Option) (*Store, error) {
	if appName == "" {
		return nil, fmt.Errorf("must provide app name")
	}
	if tableName == "" {
		return nil, fmt.Errorf("must provide table name")
	}

	s := &Store{
		appName:   appName,
		tableName: tableName,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.conn == nil {
		conn, err := sql.Open("mysql", connectionStr)
		if err != nil {
			return nil, err
		}
		s.conn = conn
	}

	return s, nil
}

// Store stores and retrieves checkpoints from a MySQL table
type Store struct {
	appName   string
	tableName string
	conn      *sql.DB
}

// GetCheckpoint determines if a checkpoint for a particular Shard exists.
// Typically used to determine whether processing of the shard should start
// from the horizon or after the stored sequence number (if checkpoint exists).
func (s *Store) GetCheckpoint(ctx context.Context, streamName, shardID string) (string, error) {
	query := fmt.Sprintf(getCheckpointQuery, s.tableName)

	var sequenceNumber string
	err := s.conn.QueryRowContext(ctx, query, s.key(streamName, shardID)).Scan(&sequenceNumber)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return sequenceNumber, nil
}

// SetCheckpoint stores a checkpoint for a shard (e.g. sequence number of last record processed by application).
// Upon failover, record processing is resumed from this point.
func (s *Store) SetCheckpoint(ctx context.Context, streamName, shardID, sequenceNumber string) error {
	if sequenceNumber == "" {
		return fmt.Errorf("sequence number should not be empty")
	}

	query := fmt.Sprintf(upsertCheckpointQuery, s.tableName)
	_, err := s.conn.ExecContext(ctx, query, sequenceNumber, s.key(streamName, shardID), sequenceNumber)
	return err
}

// Shutdown closes the underlying database handle.
func (s *Store) Shutdown() error {
	return s.conn.Close()
}

// key generates a unique mysql key for storage of Checkpoint.
func (s *Store) key(streamName, shardID string) string {
	return fmt.Sprintf("%v:checkpoint:%v:%v", s.appName, streamName, shardID)
}
