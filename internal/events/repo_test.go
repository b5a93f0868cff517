package events

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("POTHOLE_DB_DSN")
	if dsn == "" {
		t.Skip("POTHOLE_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return conn
}

func TestInsertIfAbsent(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	eventID := fmt.Sprintf("evt_test_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_ = repo.Remove(context.Background(), eventID)
	})

	inserted, err := repo.InsertIfAbsent(ctx, eventID)
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if !inserted {
		t.Fatal("expected first insert to claim the event")
	}

	inserted, err = repo.InsertIfAbsent(ctx, eventID)
	if err != nil {
		t.Fatalf("second insert failed: %v", err)
	}
	if inserted {
		t.Fatal("expected second insert to be a no-op")
	}

	if err := repo.Remove(ctx, eventID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	inserted, err = repo.InsertIfAbsent(ctx, eventID)
	if err != nil {
		t.Fatalf("insert after remove failed: %v", err)
	}
	if !inserted {
		t.Fatal("expected insert to succeed after marker removal")
	}
}
