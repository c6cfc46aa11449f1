// Package asset bundles the static files the daemon ships with: the local
// fallback background and the default settings document.
package asset

import (
	"bytes"
	"embed"
	"image"
	_ "image/png" // Register PNG decoder

	"github.com/dovenav/dove/util/log"
)

//go:embed images/* text/*
var assets embed.FS

// FallbackImageName is the bundled image shown when every provider fails.
const FallbackImageName = "fallback.png"

// DefaultSettingsName is the bundled settings document applied on first run.
const DefaultSettingsName = "default_settings.json"

// Manager manages the loading of embedded assets.
type Manager struct{}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{}
}

// GetImage loads and decodes an embedded image asset by name.
func (am *Manager) GetImage(name string) (image.Image, error) {
	data, err := assets.ReadFile("images/" + name)
	if err != nil {
		log.Println("Error loading image:", err)
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Println("Error decoding image:", err)
		return nil, err
	}

	return img, nil
}

// GetRawImage loads and returns the raw bytes of an embedded image asset by name.
func (am *Manager) GetRawImage(name string) ([]byte, error) {
	return assets.ReadFile("images/" + name)
}

// GetText loads and returns an embedded text asset by name.
func (am *Manager) GetText(name string) (string, error) {
	textBytes, err := assets.ReadFile("text/" + name)
	if err != nil {
		log.Println("Error loading text:", err)
		return "", err
	}
	return string(textBytes), nil
}
