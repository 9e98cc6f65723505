package config

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EngineDepth != 12 || cfg.EngineHashMB != 64 || cfg.EngineThreads != 1 || cfg.LogLevel != "info" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.HashSeed != 0 || cfg.EnginePath != "" {
		t.Errorf("unset values = %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CHESSRULES_DATA_DIR", "/tmp/chess")
	t.Setenv("CHESSRULES_ENGINE_PATH", "/usr/bin/stockfish")
	t.Setenv("CHESSRULES_ENGINE_MOVETIME", "1500ms")
	t.Setenv("CHESSRULES_HASH_SEED", "12345")
	t.Setenv("CHESSRULES_ENGINE_NICE", "5")
	t.Setenv("CHESSRULES_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/tmp/chess" || cfg.EnginePath != "/usr/bin/stockfish" {
		t.Errorf("paths = %q, %q", cfg.DataDir, cfg.EnginePath)
	}
	if cfg.EngineMoveTime != 1500*time.Millisecond || cfg.HashSeed != 12345 || cfg.EngineNice != 5 {
		t.Errorf("movetime %v seed %d nice %d", cfg.EngineMoveTime, cfg.HashSeed, cfg.EngineNice)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"not an int", "CHESSRULES_ENGINE_DEPTH", "deep"},
		{"negative", "CHESSRULES_ENGINE_THREADS", "-2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "parse env") {
				t.Fatalf("expected parse env prefix, got %v", err)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := Config{LogLevel: "warn"}.Logger(&buf)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("output = %q", out)
	}

	buf.Reset()
	log = Config{LogLevel: "nonsense"}.Logger(&buf)
	log.Info().Msg("fallback")
	if !strings.Contains(buf.String(), "fallback") {
		t.Errorf("unknown level did not fall back to info: %q", buf.String())
	}
}
