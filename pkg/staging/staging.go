// Package staging writes uploaded files to a per-request temporary directory
// so they can be decoded from disk and removed afterwards.
package staging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

var ErrEmptyName = errors.New("staging: file name is empty")

type Stager struct {
	root string
	log  *logrus.Logger
}

// New returns a Stager rooted at dir, or at the OS temp dir when dir is empty.
func New(dir string, log *logrus.Logger) *Stager {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Stager{root: dir, log: log}
}

// File is one staged upload. Remove must be called by whoever staged it.
type File struct {
	Path string
	Size int64
	dir  string
}

// Stage copies r into a fresh directory under the stager root. Only the base
// name of the client-supplied file name is kept.
func (s *Stager) Stage(name string, r io.Reader) (*File, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "" || base == "." || base == "/" || base == ".." {
		return nil, ErrEmptyName
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("create staging root: %w", err)
	}

	dir, err := os.MkdirTemp(s.root, "focusdetect-upload-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	path := filepath.Join(dir, base)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	n, err := io.Copy(f, r)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("write staged file: %w", err)
	}

	if s.log != nil {
		s.log.WithFields(logrus.Fields{
			"path": path,
			"size": n,
		}).Debug("Upload staged")
	}

	return &File{Path: path, Size: n, dir: dir}, nil
}

func (f *File) ReadAll() ([]byte, error) {
	return os.ReadFile(f.Path)
}

// Remove deletes the staged file and its directory. Safe to call twice.
func (f *File) Remove() error {
	if f == nil || f.dir == "" {
		return nil
	}
	err := os.RemoveAll(f.dir)
	f.dir = ""
	return err
}
