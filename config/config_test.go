// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ListenAddr != ":52000" || cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MetricsAddr != "" || cfg.ReadOnly {
		t.Fatalf("metrics and read-only must be off by default: %+v", cfg)
	}
	if filepath.Base(cfg.DataDir) != ".hoard" {
		t.Errorf("DataDir = %q, want a .hoard directory", cfg.DataDir)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
	if got := ConfigPath("/srv/hoard/"); got != "/srv/hoard/config" {
		t.Errorf("ConfigPath = %q", got)
	}
}

func TestSaveThenLoad(t *testing.T) {
	want := Config{
		DataDir:     "/srv/hoard",
		ListenAddr:  "127.0.0.1:6000",
		MetricsAddr: ":9100",
		LogLevel:    "warn",
		LogFormat:   "json",
		LogFile:     "/var/log/hoardd.log",
		ReadOnly:    true,
	}
	path := filepath.Join(t.TempDir(), "nested", "config")
	if err := SaveConfig(path, want); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), "# hoard configuration") {
		t.Errorf("missing header:\n%s", raw)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got != want {
		t.Errorf("round trip:\n got %+v\nwant %+v", got, want)
	}
}

func TestLoadConfigParsing(t *testing.T) {
	path := writeFile(t, strings.Join([]string{
		"# comment",
		"",
		"  LogLevel =  debug  ",
		"logfile = /tmp/a=b.log",
		"colour = blue",
		"readonly = 1",
	}, "\n"))

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.LogFile != "/tmp/a=b.log" {
		t.Errorf("LogFile = %q, value must split on the first '='", cfg.LogFile)
	}
	if !cfg.ReadOnly {
		t.Error("ReadOnly not parsed")
	}
	if cfg.ListenAddr != ":52000" {
		t.Errorf("unset ListenAddr = %q, want default", cfg.ListenAddr)
	}
}

func TestLoadConfigFailures(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("missing file: %v", err)
	}
	if _, err := LoadConfig(writeFile(t, "listen\n")); !errors.Is(err, ErrInvalidConfigLine) {
		t.Errorf("no '=': %v", err)
	}
	if _, err := LoadConfig(writeFile(t, " = x\n")); !errors.Is(err, ErrInvalidConfigLine) {
		t.Errorf("empty key: %v", err)
	}
	if _, err := LoadConfig(writeFile(t, "readonly = maybe\n")); !errors.Is(err, ErrInvalidBool) {
		t.Errorf("bad bool: %v", err)
	}
	if _, err := LoadConfig(t.TempDir()); err == nil || errors.Is(err, ErrConfigNotFound) {
		t.Errorf("directory as config: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := map[string]struct {
		modify func(*Config)
		want   error
	}{
		"empty datadir":   {func(c *Config) { c.DataDir = "" }, ErrEmptyDataDir},
		"listen no port":  {func(c *Config) { c.ListenAddr = "localhost" }, ErrInvalidListenAddr},
		"bad metrics":     {func(c *Config) { c.MetricsAddr = "9100" }, ErrInvalidMetricsAddr},
		"bad level":       {func(c *Config) { c.LogLevel = "trace" }, ErrInvalidLogLevel},
		"bad format":      {func(c *Config) { c.LogFormat = "xml" }, ErrInvalidLogFormat},
		"upper level":     {func(c *Config) { c.LogLevel = "ERROR" }, nil},
		"ipv6 listen":     {func(c *Config) { c.ListenAddr = "[::1]:52000" }, nil},
		"metrics enabled": {func(c *Config) { c.MetricsAddr = "127.0.0.1:9100" }, nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if tc.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"

	logger, err := NewLogger(cfg, &buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("dropped")
	logger.Warn("kept", "store", "foo")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info record written at warn level: %s", out)
	}
	if !strings.Contains(out, `"store":"foo"`) {
		t.Errorf("expected JSON record, got %s", out)
	}

	if lvl, err := ParseLevel("DEBUG"); err != nil || lvl != slog.LevelDebug {
		t.Errorf("ParseLevel(DEBUG) = %v, %v", lvl, err)
	}
	cfg.LogFormat = "xml"
	if _, err := NewLogger(cfg, &buf); !errors.Is(err, ErrInvalidLogFormat) {
		t.Errorf("bad format: %v", err)
	}
	cfg.LogFormat, cfg.LogLevel = "text", "loud"
	if _, err := NewLogger(cfg, &buf); !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("bad level: %v", err)
	}
}

func TestOpenLogOutput(t *testing.T) {
	w, err := OpenLogOutput(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("closing stderr wrapper: %v", err)
	}

	cfg := DefaultConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "hoardd.log")
	w, err = OpenLogOutput(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("line\n")); err != nil {
		t.Fatal(err)
	}
	w.Close()

	data, err := os.ReadFile(cfg.LogFile)
	if err != nil || string(data) != "line\n" {
		t.Errorf("log file = %q, %v", data, err)
	}
}
