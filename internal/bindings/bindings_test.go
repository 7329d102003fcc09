//go:build !ios && !android && (amd64 || arm64)

package bindings

import (
	"testing"
)

func TestLibrarySearchPaths(t *testing.T) {
	paths := LibrarySearchPaths()
	if len(paths) == 0 {
		t.Error("LibrarySearchPaths should return at least one path")
	}
}

func TestLibrarySearchPathsHonorOverride(t *testing.T) {
	t.Setenv("PROJGO_LIBRARY_PATH", "/opt/proj/lib")
	paths := LibrarySearchPaths()
	if len(paths) == 0 || paths[0] != "/opt/proj/lib" {
		t.Errorf("PROJGO_LIBRARY_PATH should be probed first, got %v", paths)
	}
}

func TestFindLibrary(t *testing.T) {
	// Must not panic; PROJ may or may not be installed.
	path, err := FindLibrary()
	if err != nil {
		t.Logf("PROJ not found (expected if not installed): %v", err)
		return
	}
	t.Logf("found libproj at %s", path)
}

// Integration test - only runs if PROJ is available.
func TestLoadPROJ(t *testing.T) {
	err := Load()
	if err != nil {
		t.Skipf("PROJ not available: %v", err)
	}

	if !IsLoaded() {
		t.Error("IsLoaded should be true after successful Load")
	}
	if LibPROJ() == 0 {
		t.Error("LibPROJ should return a non-zero handle after Load")
	}

	t.Logf("PROJ loaded: %q", Release())
}
