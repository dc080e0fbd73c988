package infra

import (
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PERSISTENCE_MODE", "DATABASE_URL", "SQLITE_PATH", "JOB_DISPATCH", "JOB_CONCURRENCY",
		"CONDITION_PROVIDER", "ANALYZER_PROVIDER", "INTENT_PROVIDER", "CORS_ALLOWED_ORIGINS",
		"COLLABORATOR_TIMEOUT_SECONDS", "GENERATION_TIMEOUT_SECONDS", "SEGMENT_REFINE_EDGES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaultsToStateless(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PersistenceMode != PersistenceStateless || !cfg.Stateless() {
		t.Fatalf("PersistenceMode = %q, want stateless", cfg.PersistenceMode)
	}
	if cfg.CollaboratorTimeout != 60*time.Second {
		t.Fatalf("CollaboratorTimeout = %s", cfg.CollaboratorTimeout)
	}
	if cfg.GenerationTimeout != 120*time.Second {
		t.Fatalf("GenerationTimeout = %s", cfg.GenerationTimeout)
	}
	if cfg.JobDispatch != DispatchInline {
		t.Fatalf("JobDispatch = %q", cfg.JobDispatch)
	}
	if !cfg.SegmentRefineEdges {
		t.Fatal("expected refine edges on by default")
	}
}

func TestLoadConfigInfersPostgres(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_URL", "postgres://example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PersistenceMode != PersistencePostgres {
		t.Fatalf("PersistenceMode = %q, want postgres", cfg.PersistenceMode)
	}
}

func TestLoadConfigRejectsInvalidCombinations(t *testing.T) {
	cases := map[string]map[string]string{
		"postgres without url": {"PERSISTENCE_MODE": "postgres"},
		"unknown mode":         {"PERSISTENCE_MODE": "mongo"},
		"queue stateless":      {"PERSISTENCE_MODE": "stateless", "JOB_DISPATCH": "queue"},
		"unknown dispatch":     {"JOB_DISPATCH": "kafka"},
		"unknown analyzer":     {"ANALYZER_PROVIDER": "openai"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadConfigParsesLists(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PERSISTENCE_MODE", "SQLite")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("JOB_CONCURRENCY", "0")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PersistenceMode != PersistenceSQLite || cfg.SQLitePath != "artistry.db" {
		t.Fatalf("unexpected sqlite config: %q %q", cfg.PersistenceMode, cfg.SQLitePath)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORSAllowedOrigins = %#v", cfg.CORSAllowedOrigins)
	}
	if cfg.JobConcurrency != 1 {
		t.Fatalf("JobConcurrency = %d, want clamp to 1", cfg.JobConcurrency)
	}
}
