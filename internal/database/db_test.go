package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestDSN(t *testing.T) {
	dsn := DSN("app", "secret", "db", "3306", "hotel")
	if !strings.HasPrefix(dsn, "app:secret@tcp(db:3306)/hotel?") {
		t.Fatalf("dsn = %s", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") || !strings.Contains(dsn, "charset=utf8mb4") ||
		!strings.Contains(dsn, "clientFoundRows=true") {
		t.Fatalf("dsn missing params: %s", dsn)
	}
}

func TestStatementsCoverSchema(t *testing.T) {
	stmts := Statements()
	want := []string{"hotels", "users", "refresh_tokens", "rooms", "room_units", "reservations", "reservation_rooms"}
	if len(stmts) != len(want) {
		t.Fatalf("got %d statements, want %d", len(stmts), len(want))
	}
	for i, table := range want {
		if !strings.Contains(stmts[i], "CREATE TABLE IF NOT EXISTS "+table+" ") {
			t.Fatalf("statement %d does not create %s", i, table)
		}
	}
}

func TestMigrateStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS hotels").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("boom"))

	if err := Migrate(context.Background(), db); err == nil || !strings.Contains(err.Error(), "statement 2") {
		t.Fatalf("expected failure on statement 2, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	if !IsDuplicateKey(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}) {
		t.Fatalf("1062 should be a duplicate")
	}
	if IsDuplicateKey(&mysql.MySQLError{Number: 1452}) || IsDuplicateKey(nil) {
		t.Fatalf("false positive")
	}
}
