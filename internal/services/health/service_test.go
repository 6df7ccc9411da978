package health

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"resume-feedback/internal/shared/telemetry"
)

func TestStatusWithoutDatabase(t *testing.T) {
	got := NewService(nil).Status(context.Background())
	if !got["ok"] || len(got) != 1 {
		t.Fatalf("unexpected status: %v", got)
	}
}

func TestStatusStaysOKWhenPingFails(t *testing.T) {
	t.Cleanup(telemetry.SetOutput(io.Discard))

	database, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer database.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection reset"))

	got := NewService(database).Status(context.Background())
	if !got["ok"] {
		t.Fatalf("expected ok, got %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
