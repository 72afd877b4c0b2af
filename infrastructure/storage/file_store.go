package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/carlosrabelo/voicevlan/domain/entities"
)

const (
	// DefaultDir is the output directory used when none is configured
	DefaultDir = "configs"

	fileSuffix = "_new_voice_vlan.txt"
)

// FileStore writes one configuration file per device into Dir
type FileStore struct {
	Dir string
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileStore{Dir: dir}
}

// Save writes content to <Dir>/<identity>_new_voice_vlan.txt, replacing any
// previous file of that name.
func (s *FileStore) Save(identity, content string) (string, error) {
	name := FileName(identity)
	if name == "" {
		return "", fmt.Errorf("%w: empty device identity", entities.ErrPersistence)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", entities.ErrPersistence, s.Dir, err)
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %w", entities.ErrPersistence, path, err)
	}
	return path, nil
}

// FileName derives the artifact name for a device identity. Path separators
// and whitespace are replaced so the name stays inside the output directory.
func FileName(identity string) string {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return ""
	}
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '\t', 0:
			return '_'
		}
		return r
	}, identity)
	if safe == "." || safe == ".." {
		safe = strings.ReplaceAll(safe, ".", "_")
	}
	return safe + fileSuffix
}
