package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "cfg.yaml", `
addr: ":9090"
engine_dir: /opt/engine
generate_script: /opt/engine/generate.py
gpu_count: 4
timeout_sec: 3600
checkpoints:
  t2v-A14B: /models/t2v
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.GPUCount != 4 || cfg.TimeoutSec != 3600 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Checkpoints["t2v-A14B"] != "/models/t2v" {
		t.Fatalf("checkpoints = %+v", cfg.Checkpoints)
	}
}

func TestLoadJSON(t *testing.T) {
	p := writeFile(t, "cfg.json", `{"addr":":8088","python_bin":"python3.11","cors_enabled":true,"cors_origins":["*"]}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8088" || cfg.PythonBin != "python3.11" || !cfg.CORSEnabled {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	p := writeFile(t, "cfg.toml", "addr = \":7070\"\nlaunch_bin = \"torchrun\"\n\n[checkpoints]\n\"i2v-A14B\" = \"/models/i2v\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.LaunchBin != "torchrun" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Checkpoints["i2v-A14B"] != "/models/i2v" {
		t.Fatalf("checkpoints = %+v", cfg.Checkpoints)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	p := writeFile(t, "cfg.ini", "addr=:1\n")
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
