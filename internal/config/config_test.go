package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs(nil, nil)
	if err != nil {
		t.Fatalf("LoadArgs: %v", err)
	}
	a := cfg.App
	if a.DBURL != DefaultDB || a.BindHost != "127.0.0.1" || a.BasePort != 10001 || a.PortAttempts != 10 {
		t.Fatalf("unexpected defaults %+v", a)
	}
	if a.Connect != "127.0.0.1:10000" || a.Interval != time.Second || a.Populate || a.ShowFooter {
		t.Fatalf("unexpected defaults %+v", a)
	}
	if cfg.Logging.FilePath != DefaultLogFile || cfg.Logging.Trace {
		t.Fatalf("unexpected logging defaults %+v", cfg.Logging)
	}
}

func TestLoadArgsFlags(t *testing.T) {
	args := []string{
		"--db", "sqlite:///tmp/x.db",
		"--populate",
		"--base-port", "20001",
		"--port-attempts=3",
		"--connect", "10.0.0.2:20000",
		"--interval", "250ms",
		"--footer",
		"--trace",
		"--log-file", "/tmp/g.log",
	}
	cfg, err := LoadArgs(args, nil)
	if err != nil {
		t.Fatalf("LoadArgs: %v", err)
	}
	a := cfg.App
	if a.DBURL != "sqlite:///tmp/x.db" || !a.Populate || a.BasePort != 20001 || a.PortAttempts != 3 {
		t.Fatalf("flags not applied: %+v", a)
	}
	if a.Connect != "10.0.0.2:20000" || a.Interval != 250*time.Millisecond || !a.ShowFooter {
		t.Fatalf("flags not applied: %+v", a)
	}
	if !cfg.Logging.Trace || cfg.Logging.FilePath != "/tmp/g.log" {
		t.Fatalf("logging flags not applied: %+v", cfg.Logging)
	}
	if cfg.Flags["basePort"] != "20001" || cfg.Flags["interval"] != "250ms" {
		t.Fatalf("unexpected flag map %v", cfg.Flags)
	}
	if len(cfg.Args) != len(args) {
		t.Fatalf("args not recorded")
	}
}

func TestEnvironmentFallbackAndOverride(t *testing.T) {
	env := []string{
		"GRIDSYNC_DB=mysql://u:p@db/rust",
		"GRIDSYNC_CONNECT=127.0.0.1:10005",
		"GRIDSYNC_TRACE=1",
		"GRIDSYNC_BASE_PORT=not-a-number",
		"malformed",
	}
	cfg, err := LoadArgs([]string{"--connect", "127.0.0.1:10006"}, env)
	if err != nil {
		t.Fatalf("LoadArgs: %v", err)
	}
	if cfg.App.DBURL != "mysql://u:p@db/rust" {
		t.Fatalf("env db ignored: %q", cfg.App.DBURL)
	}
	if cfg.App.Connect != "127.0.0.1:10006" {
		t.Fatalf("flag should override env, got %q", cfg.App.Connect)
	}
	if !cfg.Logging.Trace {
		t.Fatalf("env trace ignored")
	}
	if cfg.App.BasePort != 10001 {
		t.Fatalf("bad env int should fall back, got %d", cfg.App.BasePort)
	}
}

func TestLoadArgsRejectsBadValues(t *testing.T) {
	cases := [][]string{
		{"--base-port", "0"},
		{"--base-port", "65535", "--port-attempts", "2"},
		{"--port-attempts", "0"},
		{"--connect", "nohost"},
		{"--interval", "0s"},
		{"--db", " "},
		{"--width", "-1"},
		{"stray"},
	}
	for _, args := range cases {
		if _, err := LoadArgs(args, nil); !errors.Is(err, ErrInvalid) {
			t.Errorf("LoadArgs(%v) err = %v, want ErrInvalid", args, err)
		}
	}
	if _, err := LoadArgs([]string{"--no-such-flag"}, nil); err == nil {
		t.Fatalf("unknown flag accepted")
	}
}

func TestBindSharesFlagSet(t *testing.T) {
	fs := pflag.NewFlagSet("root", pflag.ContinueOnError)
	values := Bind(fs, nil)
	if fs.Lookup("db") == nil || fs.Lookup("populate") == nil {
		t.Fatalf("expected flags declared on the supplied set")
	}
	if err := fs.Parse([]string{"--populate"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := values.Config([]string{"--populate"})
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if !cfg.App.Populate {
		t.Fatalf("populate not applied")
	}
}
