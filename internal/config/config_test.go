package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
mode: debug
port: 9090
jwt_secret: s3cret
store: mongo
mongo:
  uri: mongodb://db:27017
reaper:
  interval: 15s
  grace: 3m
ice_servers:
  - urls: ["turn:turn.example.com:3478"]
    username: alice
    credential: pw
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9090 || cfg.Mode != "debug" || cfg.Store != StoreMongo {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Mongo.URI != "mongodb://db:27017" || cfg.Mongo.Database != "learning" {
		t.Errorf("mongo = %+v", cfg.Mongo)
	}
	if cfg.Reaper.Interval != 15*time.Second || cfg.Reaper.Grace != 3*time.Minute {
		t.Errorf("reaper = %+v", cfg.Reaper)
	}
	if cfg.PingPeriod != 54*time.Second || cfg.SendBuffer != 64 || cfg.ReadLimit != 32768 {
		t.Errorf("transport defaults = %s %d %d", cfg.PingPeriod, cfg.SendBuffer, cfg.ReadLimit)
	}
	if len(cfg.ICEServers) != 1 || cfg.ICEServers[0].Username != "alice" || cfg.ICEServers[0].URLs[0] != "turn:turn.example.com:3478" {
		t.Errorf("ice = %+v", cfg.ICEServers)
	}
}

func TestLoadFileEnvOverride(t *testing.T) {
	t.Setenv("ROOMCOORD_PORT", "7070")
	t.Setenv("ROOMCOORD_REAPER_GRACE", "1h")
	path := writeConfig(t, "mode: debug\nport: 9090\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 7070 {
		t.Errorf("port = %d, want env override", cfg.Port)
	}
	if cfg.Reaper.Grace != time.Hour {
		t.Errorf("grace = %s", cfg.Reaper.Grace)
	}
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	t.Setenv("ROOMCOORD_JWT_SECRET", "x")
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != "release" || cfg.Store != StoreMemory || len(cfg.ICEServers) != 1 {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{Mode: "release", JWTSecret: "k", Store: StoreMemory, PingPeriod: time.Second,
			SendBuffer: 1, ReadLimit: 1, Reaper: Reaper{Interval: time.Second}}
	}
	c := base()
	if err := c.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	c = base()
	c.JWTSecret = ""
	if err := c.Validate(); !errors.Is(err, ErrJWTSecretRequired) {
		t.Errorf("release without secret: %v", err)
	}
	c = base()
	c.Store = "redis"
	if c.Validate() == nil {
		t.Error("unknown store accepted")
	}
	c = base()
	c.Reaper.Interval = 0
	if c.Validate() == nil {
		t.Error("zero reaper interval accepted")
	}
}
