package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		t.Setenv(EnvVar, "/ignored")
		dir, err := New("/tmp/test-papermd")
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if dir.Path() != "/tmp/test-papermd" {
			t.Errorf("Path() = %s", dir.Path())
		}
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv(EnvVar, "/tmp/env-papermd")
		dir, err := New("")
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if dir.Path() != "/tmp/env-papermd" {
			t.Errorf("Path() = %s", dir.Path())
		}
	})

	t.Run("default under user home", func(t *testing.T) {
		t.Setenv(EnvVar, "")
		dir, err := New("")
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		userHome, _ := os.UserHomeDir()
		if want := filepath.Join(userHome, ".papermd"); dir.Path() != want {
			t.Errorf("Path() = %s, want %s", dir.Path(), want)
		}
	})

	t.Run("relative path made absolute", func(t *testing.T) {
		dir, err := New("rel-home")
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if !filepath.IsAbs(dir.Path()) {
			t.Errorf("Path() = %s is not absolute", dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-papermd")
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"outputs", dir.OutputsPath(), "/tmp/test-papermd/outputs"},
		{"config", dir.ConfigPath(), "/tmp/test-papermd/config.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestDir_Ensure(t *testing.T) {
	dir, err := New(filepath.Join(t.TempDir(), "home"))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := dir.Ensure(); err != nil {
			t.Fatalf("Ensure() call %d error = %v", i+1, err)
		}
	}
	if st, err := os.Stat(dir.OutputsPath()); err != nil || !st.IsDir() {
		t.Errorf("outputs directory missing: %v", err)
	}

	if dir.ConfigExists() {
		t.Error("config should not exist yet")
	}
	if err := os.Mkdir(dir.ConfigPath(), 0o755); err != nil {
		t.Fatal(err)
	}
	if dir.ConfigExists() {
		t.Error("a directory named config.yaml is not a config file")
	}
}

func TestDir_OutputRoot(t *testing.T) {
	base := t.TempDir()
	dir, _ := New(filepath.Join(base, "home"))

	tests := []struct {
		name       string
		flag       string
		configured string
		want       string
	}{
		{"flag wins", filepath.Join(base, "flag"), filepath.Join(base, "cfg"), filepath.Join(base, "flag")},
		{"configured", "", filepath.Join(base, "cfg"), filepath.Join(base, "cfg")},
		{"home outputs", "", "", filepath.Join(base, "home", "outputs")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dir.OutputRoot(tt.flag, tt.configured)
			if err != nil {
				t.Fatalf("OutputRoot() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("OutputRoot() = %s, want %s", got, tt.want)
			}
			if st, err := os.Stat(got); err != nil || !st.IsDir() {
				t.Errorf("output root not created: %v", err)
			}
		})
	}

	t.Run("file in the way", func(t *testing.T) {
		file := filepath.Join(base, "file")
		if err := os.WriteFile(file, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := dir.OutputRoot(file, ""); err == nil {
			t.Error("expected error when the output root is a file")
		}
	})
}
