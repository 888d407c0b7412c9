package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/prismagen/internal/schema"
)

// FileStore keeps one document per YAML or JSON file. The default key maps
// to path itself; any other key maps to a sibling file <name>.<key><ext>.
type FileStore struct {
	path string
	ext  string
}

// NewFileStore creates a store rooted at path. The extension selects the encoding.
func NewFileStore(path string) (*FileStore, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("unsupported document file extension: %q", ext)
	}
	return &FileStore{path: path, ext: ext}, nil
}

// Path returns the file backing key
func (s *FileStore) Path(key string) string {
	if key == "" || key == DefaultKey {
		return s.path
	}
	base := strings.TrimSuffix(s.path, filepath.Ext(s.path))
	return base + "." + key + filepath.Ext(s.path)
}

// Load reads and decodes the file backing key
func (s *FileStore) Load(ctx context.Context, key string) (*schema.Document, error) {
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}
	return DecodeDocument(data, s.ext)
}

// Save encodes doc and atomically replaces the file backing key
func (s *FileStore) Save(ctx context.Context, key string, doc *schema.Document) error {
	data, err := EncodeDocument(doc, s.ext)
	if err != nil {
		return err
	}

	path := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create document directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".prismagen-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write document file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write document file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace document file: %w", err)
	}
	return nil
}

// Close is a no-op
func (s *FileStore) Close() error {
	return nil
}

// DecodeDocument decodes YAML (.yaml, .yml) or JSON (.json) data
func DecodeDocument(data []byte, ext string) (*schema.Document, error) {
	var doc schema.Document
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode JSON document: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode YAML document: %w", err)
		}
	}
	return &doc, nil
}

// EncodeDocument encodes doc as YAML (.yaml, .yml) or indented JSON (.json)
func EncodeDocument(doc *schema.Document, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON document: %w", err)
		}
		return append(data, '\n'), nil
	default:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to encode YAML document: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode YAML document: %w", err)
		}
		return buf.Bytes(), nil
	}
}
