package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("QUIZ_TIME_LIMIT_MINUTES", "")
	t.Setenv("STORE_DRIVER", "")

	cfg := Load()
	if cfg.StoreDriver != StoreFile {
		t.Fatalf("expected file store by default, got %q", cfg.StoreDriver)
	}
	if cfg.Quiz.TimeLimit() != 50*time.Minute {
		t.Fatalf("expected 50m limit, got %s", cfg.Quiz.TimeLimit())
	}
	if !cfg.Quiz.ShuffleQuestions || cfg.Quiz.ShuffleOptions {
		t.Fatalf("unexpected shuffle defaults: %+v", cfg.Quiz)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Fatalf("expected 250ms tick, got %s", cfg.TickInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("QUIZ_TIME_LIMIT_MINUTES", "0")
	t.Setenv("QUIZ_SHUFFLE_OPTIONS", "true")
	t.Setenv("QUIZ_ALLOW_REVIEW", "not-a-bool")
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()
	if cfg.Quiz.TimeLimit() != 0 {
		t.Fatalf("expected timer disabled, got %s", cfg.Quiz.TimeLimit())
	}
	if !cfg.Quiz.ShuffleOptions {
		t.Fatal("expected shuffle options on")
	}
	if !cfg.Quiz.AllowReviewBeforeSubmit {
		t.Fatal("invalid bool should fall back to default")
	}
	if cfg.StoreDriver != StoreRedis {
		t.Fatalf("expected redis, got %q", cfg.StoreDriver)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestSlotKeys(t *testing.T) {
	if got := CacheKey.SessionSlotKey("cbt"); got != "quiz:cbt:session" {
		t.Fatalf("unexpected slot key %q", got)
	}
	if got := CacheKey.SessionFileName("cbt"); got != "cbt.session.json" {
		t.Fatalf("unexpected file name %q", got)
	}
}

func TestLoadStorageOptions(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/quiz.db")
	t.Setenv("AUTO_MIGRATE", "true")

	cfg := Load()
	if cfg.StoreDriver != StoreSQLite {
		t.Fatalf("expected sqlite driver, got %q", cfg.StoreDriver)
	}
	if cfg.SQLitePath != "/tmp/quiz.db" {
		t.Fatalf("unexpected sqlite path %q", cfg.SQLitePath)
	}
	if !cfg.AutoMigrate {
		t.Fatal("expected auto migrate on")
	}
}
