package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "folio")
	path := writeFile(t, "name: ${SAMPLE_NAME}\ncount: 3\n")

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "folio" || s.Count != 3 {
		t.Errorf("loaded %+v", s)
	}
}

func TestLoad_RunsValidator(t *testing.T) {
	path := writeFile(t, "count: 1\n")
	var s sample
	if err := Load(path, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadOptional(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	s := sample{Name: "default"}
	if err := LoadOptional(missing, &s); err != nil {
		t.Fatalf("missing file with valid defaults: %v", err)
	}
	if s.Name != "default" {
		t.Errorf("defaults changed: %+v", s)
	}

	var empty sample
	if err := LoadOptional(missing, &empty); err == nil {
		t.Error("defaults still have to validate")
	}

	path := writeFile(t, "name: file\n")
	if err := LoadOptional(path, &s); err != nil || s.Name != "file" {
		t.Errorf("present file: %+v, %v", s, err)
	}
}
