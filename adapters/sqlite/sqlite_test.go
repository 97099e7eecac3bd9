package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS session_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	a, err := New(context.Background(), db)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return a, mock
}

func TestAdapter_PutIsTransactional(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO session_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO session_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := a.Put(context.Background(), map[string]string{"authToken": "t", "authUser": "{}"})
	if err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestAdapter_PutRollsBackOnFailure(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO session_entries").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := a.Put(context.Background(), map[string]string{"authToken": "t"})
	if err == nil {
		t.Fatal("Put() should fail")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestAdapter_GetAndDelete(t *testing.T) {
	a, mock := newMockAdapter(t)

	rows := sqlmock.NewRows([]string{"key", "value"}).AddRow("authToken", "t")
	mock.ExpectQuery(`SELECT key, value FROM session_entries WHERE key IN \(\?, \?\)`).
		WithArgs("authToken", "authUser").
		WillReturnRows(rows)
	mock.ExpectExec(`DELETE FROM session_entries WHERE key IN \(\?, \?\)`).
		WithArgs("authToken", "authUser").
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := a.Get(context.Background(), "authToken", "authUser")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(got) != 1 || got["authToken"] != "t" {
		t.Fatalf("unexpected entries: %+v", got)
	}
	if err := a.Delete(context.Background(), "authToken", "authUser"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestAdapter_RealDatabase(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer a.Close()

	if err := a.Put(ctx, map[string]string{"authToken": "t1", "authUser": `{"id":1}`}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := a.Put(ctx, map[string]string{"authToken": "t2"}); err != nil {
		t.Fatalf("second Put() error: %v", err)
	}

	got, err := a.Get(ctx, "authToken", "authUser", "missing")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got["authToken"] != "t2" || got["authUser"] != `{"id":1}` || len(got) != 2 {
		t.Fatalf("unexpected entries: %+v", got)
	}

	if err := a.Delete(ctx, "authToken", "authUser"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if got, _ := a.Get(ctx, "authToken", "authUser"); len(got) != 0 {
		t.Fatalf("entries after Delete(): %+v", got)
	}
}
