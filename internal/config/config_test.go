package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"actornet/actors"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	src, err := NewSource("")
	if err != nil {
		t.Fatal(err)
	}
	if src.Path() != "" {
		t.Fatalf("path = %q", src.Path())
	}
	cfg, err := src.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Actors.MaxStreamed != 50 || cfg.Actors.MaxActors != 1000 || cfg.Actors.LegacyCapBoundary {
		t.Fatalf("actors = %+v", cfg.Actors)
	}
	if cfg.Actors.StreamRate != time.Second || cfg.Actors.StreamRadius != 200 {
		t.Fatalf("stream = %v %v", cfg.Actors.StreamRate, cfg.Actors.StreamRadius)
	}
	if !cfg.Game.ValidateAnimations || cfg.Game.UseAllAnimations {
		t.Fatalf("game = %+v", cfg.Game)
	}
	if cfg.Server.TickRate != 50*time.Millisecond || cfg.Log.Level != "info" {
		t.Fatalf("server = %+v log = %+v", cfg.Server, cfg.Log)
	}
}

func TestFileAndEnv(t *testing.T) {
	p := writeFile(t, "actornet.yaml", `
actors:
  max_streamed: 20
  legacy_cap_boundary: true
  stream_rate: 250ms
game:
  use_all_animations: true
log:
  level: debug
`)
	t.Setenv("ACTORNET_ACTORS_STREAM_RADIUS", "75.5")
	t.Setenv("ACTORNET_SERVER_MAX_PLAYERS", "64")

	src, err := NewSource(p)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := src.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Actors.MaxStreamed != 20 || !cfg.Actors.LegacyCapBoundary || cfg.Actors.StreamRate != 250*time.Millisecond {
		t.Fatalf("actors = %+v", cfg.Actors)
	}
	if cfg.Actors.StreamRadius != 75.5 || cfg.Server.MaxPlayers != 64 {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.Actors, cfg.Server)
	}
	if !cfg.Game.UseAllAnimations || cfg.Log.Level != "debug" {
		t.Fatalf("game = %+v log = %+v", cfg.Game, cfg.Log)
	}
}

func TestInvalidRejected(t *testing.T) {
	cases := map[string]string{
		"negative cap":  "actors:\n  max_streamed: -1\n",
		"unknown level": "log:\n  level: loud\n",
		"zero radius":   "actors:\n  stream_radius: 0\n",
		"too many":      "actors:\n  max_actors: 5000\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			src, err := NewSource(writeFile(t, "c.yaml", body))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := src.Load(); err == nil || !strings.Contains(err.Error(), "invalid configuration") {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestMissingExplicitFile(t *testing.T) {
	if _, err := NewSource(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("missing explicit file accepted")
	}
}

func TestApply(t *testing.T) {
	cfg := &Config{
		Actors: ActorsConfig{MaxStreamed: 7, LegacyCapBoundary: true, StreamRadius: 10, StreamRate: time.Minute},
		Game:   GameConfig{ValidateAnimations: false, UseAllAnimations: true},
	}
	s := actors.NewSettings()
	cfg.Apply(s)
	if s.MaxStreamed() != 7 || !s.LegacyCapBoundary() || s.StreamRadius() != 10 || s.StreamRate() != time.Minute {
		t.Fatal("actor settings not applied")
	}
	if s.ValidateAnimations() || !s.AllAnimationLibraries() {
		t.Fatal("animation toggles not applied")
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "ACTORNET_TEST_DOTENV"
	os.Unsetenv(key)
	t.Cleanup(func() { os.Unsetenv(key) })

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing .env: %v", err)
	}
	if err := LoadDotEnv(writeFile(t, ".env", key+"=on\n")); err != nil {
		t.Fatal(err)
	}
	if os.Getenv(key) != "on" {
		t.Fatalf("%s = %q", key, os.Getenv(key))
	}
}

// chdir changes the working directory for the duration of the test,
// like testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
