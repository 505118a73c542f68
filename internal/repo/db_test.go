package repo

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mediminder/mediminder-backend/internal/domain"
)

func TestOpenSQLite_CreatesAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "open.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// Smoke write/read through the migrated schema.
	med := domain.Medicine{UserID: "u1", Name: "Metformin", Dosage: "500mg", Frequency: 2, StartDate: time.Now().UTC()}
	if err := db.Create(&med).Error; err != nil {
		t.Fatalf("create medicine: %v", err)
	}
	var back domain.Medicine
	if err := db.First(&back, "user_id = ?", "u1").Error; err != nil {
		t.Fatalf("read medicine back: %v", err)
	}
	if back.Name != "Metformin" {
		t.Fatalf("round trip: %+v", back)
	}
}

func TestOpenSQLite_MissingParentDirFailsEarly(t *testing.T) {
	if _, err := OpenSQLite(filepath.Join(t.TempDir(), "no-such-dir", "x.db")); err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}

func TestOpenSQLite_RegistersQueryTracing(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "traced.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if len(db.Config.Plugins) == 0 {
		t.Fatalf("no gorm plugins registered; query tracing missing")
	}
}
