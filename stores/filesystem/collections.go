package filesystem

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"dnastudio/core"

	"github.com/sirupsen/logrus"
)

const fileExt = ".json"

type fsStore struct {
	basePath string
	mu       sync.Mutex
}

// NewStore creates a store that keeps each collection in <basePath>/<name>.json.
func NewStore(basePath string) (*fsStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	return &fsStore{basePath: basePath}, nil
}

// path resolves the file of a collection and refuses anything that would
// escape the base directory.
func (s *fsStore) path(name string) (string, error) {
	if err := core.ValidateCollectionName(name); err != nil {
		return "", err
	}
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	absFile, err := filepath.Abs(filepath.Join(s.basePath, name+fileExt))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absFile, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path: access denied")
	}
	return absFile, nil
}

func (s *fsStore) Load(ctx context.Context, name string) ([]byte, error) {
	filePath, err := s.path(name)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"collection": name, "file_path": filePath})

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("Collection file not found")
			return nil, fmt.Errorf("collection %s: %w", name, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to read collection")
		return nil, err
	}
	return data, nil
}

func (s *fsStore) Save(ctx context.Context, name string, data []byte) error {
	filePath, err := s.path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(name, filePath, data)
}

// write stores data pretty-printed when it is valid JSON.
func (s *fsStore) write(name, filePath string, data []byte) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err == nil {
		data = pretty.Bytes()
	}

	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		logrus.WithField("collection", name).WithError(err).Error("Failed to write collection")
		return err
	}
	if err := os.Rename(tmp, filePath); err != nil {
		logrus.WithField("collection", name).WithError(err).Error("Failed to replace collection file")
		return err
	}
	return nil
}

func (s *fsStore) Append(ctx context.Context, name string, entry []byte) error {
	filePath, err := s.path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := os.ReadFile(filePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	updated, err := core.AppendEntry(existing, entry)
	if err != nil {
		return err
	}
	return s.write(name, filePath, updated)
}

func (s *fsStore) Names(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), fileExt)
		if core.ValidateCollectionName(name) == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
