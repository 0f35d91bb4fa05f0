package paths

import (
	"os"
	"path/filepath"
	"sync"
)

const defaultRoot = "/var/lib/displayd"

var (
	root string
	once sync.Once
)

func resolveRoot() {
	candidate := os.Getenv("DISPLAYD_STATE_DIR")
	if candidate == "" {
		candidate = defaultRoot
	}
	root = filepath.Clean(candidate)
}

// Root returns the base directory where displayd's durable state lives.
func Root() string {
	once.Do(resolveRoot)
	return root
}

// Join resolves a path relative to the state root.
func Join(elements ...string) string {
	all := append([]string{Root()}, elements...)
	return filepath.Join(all...)
}

func AuthDir() string        { return Join("auth") }
func SettingsDBPath() string { return Join("settings.db") }
func CatalogPath() string    { return Join("devices.yaml") }
func TLSDir() string         { return Join("tls") }

// SetRootForTest resets the cached root so tests can override DISPLAYD_STATE_DIR.
func SetRootForTest(dir string) {
	if dir != "" {
		os.Setenv("DISPLAYD_STATE_DIR", dir)
	}
	root = ""
	once = sync.Once{}
}
