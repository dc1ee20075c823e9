package postgres

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := New("app", "checkpoints", "", WithConnection(db))
	if err != nil {
		t.Fatalf("new store error: %v", err)
	}
	return s, mock
}

func Test_GetCheckpoint(t *testing.T) {
	s, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"sequence_number"}).AddRow("testSeqNum")
	mock.ExpectQuery("SELECT sequence_number FROM checkpoints").
		WithArgs("app-stream", "shard").
		WillReturnRows(rows)

	val, err := s.GetCheckpoint(context.Background(), "stream", "shard")
	if err != nil {
		t.Fatalf("get checkpoint error: %v", err)
	}
	if val != "testSeqNum" {
		t.Fatalf("checkpoint exists expected %s, got %s", "testSeqNum", val)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func Test_GetMissingCheckpoint(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT sequence_number FROM checkpoints").
		WithArgs("app-stream", "shard").
		WillReturnError(sql.ErrNoRows)

	val, err := s.GetCheckpoint(context.Background(), "stream", "shard")
	if err != nil {
		t.Fatalf("get checkpoint error: %v", err)
	}
	if val != "" {
		t.Fatalf("expected empty checkpoint, got %s", val)
	}
}

func Test_SetCheckpoint(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO checkpoints").
		WithArgs("app-stream", "shard", "testSeqNum").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.SetCheckpoint(context.Background(), "stream", "shard", "testSeqNum"); err != nil {
		t.Fatalf("set checkpoint error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func Test_SetEmptySeqNum(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.SetCheckpoint(context.Background(), "stream", "shard", "")
	if err == nil {
		t.Fatalf("should not allow empty sequence number")
	}
}
