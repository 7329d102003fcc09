//go:build !ios && !android && (amd64 || arm64)

// Package bindings locates and loads the PROJ shared library with purego.
//
// The library handle is process-wide: PROJ itself is loaded once, while all
// per-call mutable state lives in PJ_CONTEXT objects owned by the pool in the
// root package.
package bindings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/projgo/projgo/internal/platform"
)

// ErrNotLoaded is returned when PROJ functions are called before Load().
var ErrNotLoaded = errors.New("projgo: PROJ library not loaded; call projgo.Init() first")

// ErrLibraryNotFound is returned when the PROJ library cannot be found.
var ErrLibraryNotFound = errors.New("projgo: PROJ library not found")

// sonameVersions are the libproj SONAME versions probed, newest first.
// PROJ 9.x ships libproj.so.25, 8.x ships .22/.19, 7.x ships .19/.17.
var sonameVersions = []int{25, 24, 23, 22, 21, 20, 19, 17, 15}

var (
	libPROJ uintptr

	loaded   bool
	loadOnce sync.Once
	loadErr  error

	releaseAddr uintptr // address of the pj_release version string
)

// IsLoaded returns true if the PROJ library has been successfully loaded.
func IsLoaded() bool {
	return loaded
}

// Load loads the PROJ shared library. It is safe to call multiple times;
// subsequent calls are no-ops and return the first outcome.
func Load() error {
	loadOnce.Do(func() {
		loadErr = doLoad()
		if loadErr == nil {
			loaded = true
		}
	})
	return loadErr
}

func doLoad() error {
	var err error
	libPROJ, err = loadLibrary("proj", sonameVersions)
	if err != nil {
		return fmt.Errorf("loading libproj: %w", err)
	}

	// pj_release is an exported char array holding the release string,
	// e.g. "Rel. 9.3.0, September 1st, 2023". Optional: older builds may
	// strip data symbols.
	if addr, err := purego.Dlsym(libPROJ, "pj_release"); err == nil {
		releaseAddr = addr
	}
	return nil
}

// Release returns the PROJ release string, or "" if unavailable.
func Release() string {
	if releaseAddr == 0 {
		return ""
	}
	return goString(releaseAddr)
}

// goString reads a NUL-terminated C string at addr.
func goString(addr uintptr) string {
	if addr == 0 {
		return ""
	}
	p := (*byte)(unsafe.Pointer(addr))
	n := 0
	for *(*byte)(unsafe.Pointer(addr + uintptr(n))) != 0 {
		n++
		if n > 1<<16 {
			break
		}
	}
	return string(unsafe.Slice(p, n))
}

// loadLibrary attempts to load a library by trying versioned names.
func loadLibrary(name string, versions []int) (uintptr, error) {
	for _, searchPath := range LibrarySearchPaths() {
		for _, ver := range versions {
			libName := platform.FormatLibraryName(name, ver)
			lib, err := tryOpen(filepath.Join(searchPath, libName))
			if err == nil {
				return lib, nil
			}
		}

		libName := platform.FormatLibraryName(name, 0)
		lib, err := tryOpen(filepath.Join(searchPath, libName))
		if err == nil {
			return lib, nil
		}
	}

	// Bare names: let the dynamic linker search its own paths.
	for _, ver := range versions {
		lib, err := tryOpen(platform.FormatLibraryName(name, ver))
		if err == nil {
			return lib, nil
		}
	}
	lib, err := tryOpen(platform.FormatLibraryName(name, 0))
	if err == nil {
		return lib, nil
	}

	return 0, fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

// tryOpen attempts to open a library with RTLD_NOW | RTLD_GLOBAL.
// RTLD_GLOBAL keeps PROJ's own dependencies (libsqlite3, libtiff) resolvable.
func tryOpen(path string) (uintptr, error) {
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, err
	}
	return lib, nil
}

// FindLibrary searches for the PROJ library and returns its full path.
// This is useful for diagnostics.
func FindLibrary() (string, error) {
	for _, searchPath := range LibrarySearchPaths() {
		for _, ver := range sonameVersions {
			fullPath := filepath.Join(searchPath, platform.FormatLibraryName("proj", ver))
			if _, err := os.Stat(fullPath); err == nil {
				return fullPath, nil
			}
		}
		fullPath := filepath.Join(searchPath, platform.FormatLibraryName("proj", 0))
		if _, err := os.Stat(fullPath); err == nil {
			return fullPath, nil
		}
	}
	return "", fmt.Errorf("%w: proj", ErrLibraryNotFound)
}

// LibrarySearchPaths returns the directories probed for libproj, in order.
// PROJGO_LIBRARY_PATH always wins, then the platform linker paths.
func LibrarySearchPaths() []string {
	var paths []string

	if p := os.Getenv("PROJGO_LIBRARY_PATH"); p != "" {
		paths = append(paths, filepath.SplitList(p)...)
	}

	switch runtime.GOOS {
	case "linux":
		if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
			paths = append(paths, filepath.SplitList(ldPath)...)
		}
		paths = append(paths,
			"/usr/lib/x86_64-linux-gnu",
			"/usr/lib/aarch64-linux-gnu",
			"/usr/local/lib",
			"/usr/lib",
			"/lib/x86_64-linux-gnu",
			"/lib",
		)

	case "darwin":
		if dyldPath := os.Getenv("DYLD_LIBRARY_PATH"); dyldPath != "" {
			paths = append(paths, filepath.SplitList(dyldPath)...)
		}
		paths = append(paths,
			"/opt/homebrew/lib", // Apple Silicon
			"/usr/local/lib",    // Intel
			"/opt/homebrew/opt/proj/lib",
			"/usr/local/opt/proj/lib",
		)

	case "windows":
		if winPath := os.Getenv("PATH"); winPath != "" {
			paths = append(paths, filepath.SplitList(winPath)...)
		}
		if exe, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Dir(exe))
		}
		paths = append(paths,
			"C:\\OSGeo4W\\bin",
			"C:\\Program Files\\PROJ\\bin",
		)

	case "freebsd":
		if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
			paths = append(paths, filepath.SplitList(ldPath)...)
		}
		paths = append(paths,
			"/usr/local/lib",
			"/usr/lib",
		)
	}

	return paths
}

// LibPROJ returns the libproj library handle.
func LibPROJ() uintptr {
	return libPROJ
}
