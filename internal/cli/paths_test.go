package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", custom)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(custom, appName); dir != want {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output string
		format string
		multi  bool
		want   string
	}{
		{"", "svg", false, "roadmap.svg"},
		{"", "dot", true, "roadmap.dot"},
		{"out/map.svg", "svg", false, "out/map.svg"},
		{"out/map.svg", "png", true, "out/map.png"},
	}
	for _, tt := range tests {
		if got := outputPath("roadmap", tt.output, nodelinkFormat(tt.format), tt.multi); got != tt.want {
			t.Errorf("outputPath(%q, %s, %v) = %q, want %q", tt.output, tt.format, tt.multi, got, tt.want)
		}
	}
}
