package driver

import (
	"os"
	"path/filepath"
	"runtime"
)

// defaultCacheDir resolves the runtime header cache location: an explicit
// BISMUTCACHE env var wins, otherwise a platform-conventional cache
// directory under the user's home.
func defaultCacheDir() string {
	if env := os.Getenv("BISMUTCACHE"); env != "" {
		return env
	}

	homeDir, _ := os.UserHomeDir()
	var dir string
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LocalAppData"); localAppData != "" {
			return filepath.Join(localAppData, "bismut")
		}
		dir = filepath.Join(homeDir, "AppData", "Local", "bismut")
	case "darwin":
		dir = filepath.Join(homeDir, "Library", "Caches", "bismut")
	default:
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "bismut")
		}
		dir = filepath.Join(homeDir, ".cache", "bismut")
	}
	os.Setenv("BISMUTCACHE", dir)
	return dir
}
