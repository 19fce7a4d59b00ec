// Package xdg resolves the XDG base directories used by cuneiset.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "cuneiset"

// ConfigHome returns the XDG config home directory.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigHome() string {
	return fromEnv("XDG_CONFIG_HOME", ".config")
}

// DataHome returns the XDG data home directory.
// Uses $XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataHome() string {
	return fromEnv("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// CacheHome returns the XDG cache home directory.
// Uses $XDG_CACHE_HOME if set, otherwise ~/.cache.
func CacheHome() string {
	return fromEnv("XDG_CACHE_HOME", ".cache")
}

// ConfigDir returns the cuneiset config directory: ConfigHome()/cuneiset.
func ConfigDir() string {
	return filepath.Join(ConfigHome(), appName)
}

// DataDir returns the cuneiset data directory: DataHome()/cuneiset.
func DataDir() string {
	return filepath.Join(DataHome(), appName)
}

// CacheDir returns the cuneiset cache directory: CacheHome()/cuneiset.
// Downloaded corpora and sign lists live here.
func CacheDir() string {
	return filepath.Join(CacheHome(), appName)
}

func fromEnv(key, fallback string) string {
	if dir := os.Getenv(key); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, fallback)
}
