package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnvSource(t *testing.T) {
	envSource := &EnvSource{}

	t.Run("GetString", func(t *testing.T) {
		t.Setenv("TEST_STRING", "test_value")

		value, found := envSource.GetString("TEST_STRING")
		if !found || value != "test_value" {
			t.Errorf("expected 'test_value', got '%s' (%v)", value, found)
		}

		value, found = envSource.GetString("MISSING_STRING")
		if found || value != "" {
			t.Errorf("expected not to find MISSING_STRING, got '%s'", value)
		}
	})

	t.Run("GetInt", func(t *testing.T) {
		t.Setenv("TEST_INT", "42")
		t.Setenv("TEST_INVALID_INT", "not_a_number")

		if value, found := envSource.GetInt("TEST_INT"); !found || value != 42 {
			t.Errorf("expected 42, got %d (%v)", value, found)
		}
		if _, found := envSource.GetInt("TEST_INVALID_INT"); found {
			t.Error("expected invalid int to be reported as not found")
		}
	})

	t.Run("GetFloat", func(t *testing.T) {
		t.Setenv("TEST_FLOAT", "3.14")
		t.Setenv("TEST_INVALID_FLOAT", "pi")

		if value, found := envSource.GetFloat("TEST_FLOAT"); !found || value != 3.14 {
			t.Errorf("expected 3.14, got %v (%v)", value, found)
		}
		if _, found := envSource.GetFloat("TEST_INVALID_FLOAT"); found {
			t.Error("expected invalid float to be reported as not found")
		}
	})

	t.Run("GetBool", func(t *testing.T) {
		t.Setenv("TEST_BOOL", "true")
		t.Setenv("TEST_INVALID_BOOL", "maybe")

		if value, found := envSource.GetBool("TEST_BOOL"); !found || !value {
			t.Errorf("expected true, got %v (%v)", value, found)
		}
		if _, found := envSource.GetBool("TEST_INVALID_BOOL"); found {
			t.Error("expected invalid bool to be reported as not found")
		}
	})
}

func TestFlagSource(t *testing.T) {
	flagSource := NewFlagSource()
	flagSource.Set("S", "value")
	flagSource.Set("EMPTY", "")
	flagSource.Set("I", 7)
	flagSource.Set("F", 0.5)
	flagSource.Set("B", true)

	if v, ok := flagSource.GetString("S"); !ok || v != "value" {
		t.Errorf("expected 'value', got %q (%v)", v, ok)
	}
	if _, ok := flagSource.GetString("EMPTY"); ok {
		t.Error("empty string flag should not be found")
	}
	if v, ok := flagSource.GetInt("I"); !ok || v != 7 {
		t.Errorf("expected 7, got %d (%v)", v, ok)
	}
	if _, ok := flagSource.GetInt("S"); ok {
		t.Error("type mismatch should not be found")
	}
	if v, ok := flagSource.GetFloat("F"); !ok || v != 0.5 {
		t.Errorf("expected 0.5, got %v (%v)", v, ok)
	}
	if v, ok := flagSource.GetBool("B"); !ok || !v {
		t.Errorf("expected true, got %v (%v)", v, ok)
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := `LENS_SERVER_URL: http://file:8080
lens_frame_count: 90
lens_prefetch_factor: 1.1
lens_autoscroll: true
lens_hidden_threads: "a*,b*"
lens_status_seconds: "not a number"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fileSource, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource failed: %v", err)
	}
	if fileSource.Used() != path {
		t.Errorf("expected used file %q, got %q", path, fileSource.Used())
	}

	if v, ok := fileSource.GetString(KeyServerURL); !ok || v != "http://file:8080" {
		t.Errorf("expected server url from file, got %q (%v)", v, ok)
	}
	if v, ok := fileSource.GetInt(KeyFrameCount); !ok || v != 90 {
		t.Errorf("expected 90, got %d (%v)", v, ok)
	}
	if v, ok := fileSource.GetFloat(KeyPrefetchFactor); !ok || v != 1.1 {
		t.Errorf("expected 1.1, got %v (%v)", v, ok)
	}
	if v, ok := fileSource.GetBool(KeyAutoscroll); !ok || !v {
		t.Errorf("expected true, got %v (%v)", v, ok)
	}
	if v, ok := fileSource.GetString(KeyHiddenThreads); !ok || v != "a*,b*" {
		t.Errorf("expected comma list, got %q (%v)", v, ok)
	}
	if _, ok := fileSource.GetInt(KeyStatusSeconds); ok {
		t.Error("expected invalid int in file to be reported as not found")
	}
	if _, ok := fileSource.GetString(KeyMetricsAddr); ok {
		t.Error("expected unset key to be reported as not found")
	}
}

func TestFileSourceSearch(t *testing.T) {
	t.Run("nothing found", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())

		fileSource, err := NewFileSource("")
		if err != nil {
			t.Fatalf("missing search-path file should not be an error, got %v", err)
		}
		if fileSource.Used() != "" {
			t.Errorf("expected no file, got %q", fileSource.Used())
		}
		if _, ok := fileSource.GetString(KeyServerURL); ok {
			t.Error("expected empty source")
		}
	})

	t.Run("config subdirectory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "config", "lensview.yaml"), []byte("lens_frame_count: 5\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		fileSource, err := NewFileSource("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v, ok := fileSource.GetInt(KeyFrameCount); !ok || v != 5 {
			t.Errorf("expected 5 from config/lensview.yaml, got %d (%v)", v, ok)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("lens_frame_count: [unterminated\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewFileSource(path); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})
}
