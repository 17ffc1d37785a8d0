package db

import (
	"context"
	"errors"
	"testing"

	"github.com/lxp-platform/qna-engine/pkg/config"
	"gorm.io/gorm"
)

func TestNewSQLiteClientPings(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{
		DSN:    "file::memory:?cache=shared",
		Driver: config.DriverSQLite,
	}, nil)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{Driver: config.DriverSQLite}, nil); err == nil {
		t.Fatal("expected empty DSN to be rejected")
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{
		DSN:    "file::memory:?cache=shared",
		Driver: config.DriverSQLite,
	}, nil)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.DB().Exec(`CREATE TABLE IF NOT EXISTS tx_probe (id TEXT PRIMARY KEY)`).Error; err != nil {
		t.Fatalf("failed to create probe table: %v", err)
	}

	sentinel := errors.New("abort")
	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Exec(`INSERT INTO tx_probe (id) VALUES ('one')`).Error; err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	var count int64
	if err := client.DB().Raw(`SELECT COUNT(*) FROM tx_probe`).Scan(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to leave no rows, found %d", count)
	}
}
