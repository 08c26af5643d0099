package driver

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"hash"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/gofrs/flock"
)

// RuntimeDirName is the name the embedded C runtime is extracted under,
// both inside the module (driver/runtime) and inside the scratch cache.
const RuntimeDirName = "runtime"

//go:embed runtime
var runtimeFS embed.FS

// isHashDir reports whether name is an 8-char hex string, the shortHash
// directory naming scheme below.
func isHashDir(name string) bool {
	if len(name) != 8 {
		return false
	}
	_, err := hex.DecodeString(name)
	return err == nil
}

// runtimeHash hashes every embedded runtime header plus the host platform,
// so a cached extraction is reused across builds but invalidated whenever
// either changes.
func runtimeHash() (shortHash, fullHash string, fileCount int, err error) {
	h := sha256.New()
	writeMetadata(h)
	err = fs.WalkDir(runtimeFS, RuntimeDirName, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		data, readErr := runtimeFS.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		h.Write(data)
		fileCount++
		return nil
	})
	if err != nil {
		return "", "", 0, fmt.Errorf("walk embedded runtime: %w", err)
	}
	fullHash = hex.EncodeToString(h.Sum(nil))
	shortHash = fullHash[:8]
	return shortHash, fullHash, fileCount, nil
}

func writeMetadata(h hash.Hash) {
	h.Write([]byte(runtime.GOOS))
	h.Write([]byte(runtime.GOARCH))
}

// extractRuntime writes the embedded runtime headers to rtDir.
func extractRuntime(rtDir string) error {
	if err := os.MkdirAll(rtDir, 0755); err != nil {
		return fmt.Errorf("create runtime dir: %w", err)
	}
	return fs.WalkDir(runtimeFS, RuntimeDirName, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		relPath, _ := filepath.Rel(RuntimeDirName, path)
		destPath := filepath.Join(rtDir, relPath)
		if d.IsDir() {
			return os.MkdirAll(destPath, 0755)
		}
		data, err := runtimeFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read embedded %s: %w", path, err)
		}
		return os.WriteFile(destPath, data, 0644)
	})
}

// cleanupOldRuntimes removes old cached runtime extractions, keeping the
// `keep` most recent and never touching anything younger than minAge
// seconds (a concurrent build may still be reading it).
func cleanupOldRuntimes(cacheDir string, keep int, minAge int64) {
	entries, err := os.ReadDir(cacheDir)
	if err != nil || len(entries) <= keep {
		return
	}

	type dirInfo struct {
		name  string
		mtime int64
	}
	var dirs []dirInfo
	for _, e := range entries {
		if e.IsDir() && isHashDir(e.Name()) {
			if info, err := e.Info(); err == nil {
				dirs = append(dirs, dirInfo{e.Name(), info.ModTime().Unix()})
			}
		}
	}
	if len(dirs) <= keep {
		return
	}

	cutoff := time.Now().Unix() - minAge
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].mtime < dirs[j].mtime })
	for i := 0; i < len(dirs)-keep; i++ {
		if dirs[i].mtime < cutoff {
			path := filepath.Join(cacheDir, dirs[i].name)
			if err := os.RemoveAll(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to remove old runtime %s: %v\n", path, err)
			}
		}
	}
}

// prepareRuntime extracts the embedded C runtime headers into a hash-named
// directory under cacheDir, reusing a prior extraction when the hash
// matches, and returns the directory to pass as a `-I` include path. A
// file lock protects concurrent driver invocations sharing the same cache.
func prepareRuntime(cacheDir string) (string, error) {
	runtimeRoot := filepath.Join(cacheDir, RuntimeDirName)
	if err := os.MkdirAll(runtimeRoot, 0755); err != nil {
		return "", fmt.Errorf("create runtime cache dir: %w", err)
	}

	lock := flock.New(filepath.Join(runtimeRoot, ".lock"))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("acquire runtime lock: %w", err)
	}
	defer lock.Unlock()

	shortHash, fullHash, fileCount, err := runtimeHash()
	if err != nil {
		return "", err
	}
	rtDir := filepath.Join(runtimeRoot, shortHash)
	hashFile := filepath.Join(rtDir, ".hash")

	if entries, err := os.ReadDir(rtDir); err == nil && len(entries) > 0 {
		if storedHash, err := os.ReadFile(hashFile); err == nil && string(storedHash) == fullHash {
			return rtDir, nil
		}
		os.RemoveAll(rtDir)
	}

	cleanupOldRuntimes(runtimeRoot, 5, 7*24*60*60)

	if err := extractRuntime(rtDir); err != nil {
		return "", err
	}
	entries, err := os.ReadDir(rtDir)
	if err != nil || len(entries) == 0 {
		return "", fmt.Errorf("extracted runtime directory %s is empty", rtDir)
	}
	if err := os.WriteFile(hashFile, []byte(fullHash), 0644); err != nil {
		return "", fmt.Errorf("write hash file: %w", err)
	}
	_ = fileCount
	return rtDir, nil
}
