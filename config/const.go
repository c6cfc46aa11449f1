package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// AppVersion is the version of the daemon, injected at build time.
var AppVersion = "dev"

// AppName is the name of the daemon.
const AppName = "dove"

// DataSubDir is the dot directory under the user's home that holds
// settings, logs and optional model files.
var DataSubDir = "." + strings.ToLower(AppName)

// SettingsFileName is the name of the persisted settings document.
const SettingsFileName = "settings.json"

// LogExt is the extension for the log files.
var LogExt = ".log"

// DefaultListenAddr is the loopback address the bridge server binds to.
const DefaultListenAddr = "127.0.0.1:49472"

// DefaultDataDir returns the default data directory for the current user.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Error getting user home directory: %v", err)
	}
	return filepath.Join(homeDir, DataSubDir)
}
