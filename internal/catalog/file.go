package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// File is the on-disk catalog format.
type File struct {
	Version      string        `json:"version"`
	LastUpdated  string        `json:"lastUpdated"`
	DefaultBrand string        `json:"defaultBrand"`
	Brands       []BrandConfig `json:"brands"`
}

// ReadFile decodes a catalog file without validating it.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return &f, nil
}

// LoadFile reads and validates a catalog file.
func LoadFile(path string) (*Catalog, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return f.Catalog()
}

// Catalog validates the file contents and builds a catalog from them.
func (f *File) Catalog() (*Catalog, error) {
	defaultKey := f.DefaultBrand
	if defaultKey == "" {
		defaultKey = DefaultBrandKey
	}
	return New(defaultKey, f.Brands...)
}

// ToFile snapshots a catalog into the on-disk format.
func (c *Catalog) ToFile(version string) *File {
	return &File{
		Version:      version,
		LastUpdated:  time.Now().UTC().Format(time.RFC3339),
		DefaultBrand: c.defaultKey,
		Brands:       c.Brands(),
	}
}

// Save writes the file as indented JSON, creating parent directories.
func (f *File) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

// Load returns the catalog at path, or the built-in one when path is empty.
func Load(path, defaultKey string) (*Catalog, error) {
	if path == "" {
		if defaultKey == "" {
			defaultKey = DefaultBrandKey
		}
		return New(defaultKey, BuiltinBrands()...)
	}
	c, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if defaultKey != "" && defaultKey != c.defaultKey {
		return New(defaultKey, c.Brands()...)
	}
	return c, nil
}
