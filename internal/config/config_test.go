package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Server.Addr != ":3000" {
		t.Errorf("Server.Addr = %s, want :3000", cfg.Server.Addr)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "./gotrabandhus.db" {
		t.Errorf("Database = %+v, want sqlite at ./gotrabandhus.db", cfg.Database)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("Log = %+v, want info/console", cfg.Log)
	}
	if cfg.Server.WriteTimeout != 0 {
		t.Errorf("WriteTimeout = %s, want 0 so event streams stay open", cfg.Server.WriteTimeout.Duration())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromPathAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  addr: ":8080"
  read_timeout: 5s
database:
  driver: memory
tree:
  protect_root: true
seed:
  path: ./family.json
  tree_id: demo
  watch: true
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %s, want :8080", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout.Duration() != 5*time.Second {
		t.Errorf("ReadTimeout = %s, want 5s", cfg.Server.ReadTimeout.Duration())
	}
	if cfg.Server.ShutdownTimeout.Duration() != 10*time.Second {
		t.Errorf("ShutdownTimeout = %s, want 10s default", cfg.Server.ShutdownTimeout.Duration())
	}
	if cfg.Database.Path != "" {
		t.Errorf("memory driver should not get a path, got %s", cfg.Database.Path)
	}
	if !cfg.Tree.ProtectRoot || cfg.Tree.StrictImport {
		t.Errorf("Tree = %+v, want protect_root only", cfg.Tree)
	}
	if cfg.Seed.TreeID != "demo" || !cfg.Seed.Watch {
		t.Errorf("Seed = %+v", cfg.Seed)
	}
}

func TestLoadFromPathRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown driver", "database:\n  driver: postgres\n", "Driver"},
		{"unknown log level", "log:\n  level: loud\n", "Level"},
		{"seed without tree", "seed:\n  path: ./family.json\n", "TreeID"},
		{"bad seed format", "seed:\n  path: f\n  tree_id: t\n  format: gedcom\n", "Format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			_, _, err := LoadFromPath(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %s", err, tt.want)
			}
		})
	}
}

func TestLoadFromPathBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadFromPath(path); err == nil {
		t.Error("expected parse error")
	}

	if _, _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected read error")
	}
}

func TestSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.WriteTimeout = Duration(time.Minute)
	cfg.Tree.StrictImport = true
	cfg.CORS.AllowedOrigins = []string{"http://localhost:5173"}

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}
	if loaded.Server.WriteTimeout.Duration() != time.Minute {
		t.Errorf("WriteTimeout = %s, want 1m", loaded.Server.WriteTimeout.Duration())
	}
	if !loaded.Tree.StrictImport {
		t.Error("StrictImport should survive a round trip")
	}
	if len(loaded.CORS.AllowedOrigins) != 1 || loaded.CORS.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("AllowedOrigins = %v", loaded.CORS.AllowedOrigins)
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))

	oldWd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldWd)

	if found := FindConfigPath(); found != "" && !strings.HasPrefix(found, "/etc/") {
		t.Errorf("FindConfigPath() = %s, want nothing outside /etc", found)
	}

	// XDG location
	xdgPath := filepath.Join(tmpDir, "xdg", ConfigDirName, "config.yaml")
	if err := DefaultConfig().Save(xdgPath); err != nil {
		t.Fatal(err)
	}
	if found := FindConfigPath(); found != xdgPath {
		t.Errorf("FindConfigPath() = %s, want %s", found, xdgPath)
	}

	// Working directory wins over XDG
	if err := DefaultConfig().Save(filepath.Join(tmpDir, ConfigFileName)); err != nil {
		t.Fatal(err)
	}
	if found := FindConfigPath(); filepath.Base(found) != ConfigFileName {
		t.Errorf("FindConfigPath() = %s, want ./%s", found, ConfigFileName)
	}

	// Explicit env var wins when it exists, and is skipped when it doesn't
	explicit := filepath.Join(tmpDir, "explicit.yaml")
	t.Setenv(EnvConfigPath, explicit)
	if found := FindConfigPath(); filepath.Base(found) != ConfigFileName {
		t.Errorf("missing explicit path should fall back, got %s", found)
	}
	if err := DefaultConfig().Save(explicit); err != nil {
		t.Fatal(err)
	}
	if found := FindConfigPath(); found != explicit {
		t.Errorf("FindConfigPath() = %s, want %s", found, explicit)
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}
