package recording

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/timada-org/doorphone/internal/door"
)

// URLPrefix is where recordings are served from.
const URLPrefix = "/temp/"

type DoorRegistry interface {
	Get(ctx context.Context, id int64) (*door.Door, error)
}

// Store keeps recordings as flat files under a single directory.
type Store struct {
	fs afero.Fs
}

func NewStore(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recordings dir: %w", err)
	}

	return &Store{fs: afero.NewBasePathFs(fs, dir)}, nil
}

// Save writes r under filename, replacing any previous recording with the
// same name.
func (s *Store) Save(filename string, r io.Reader) (Name, error) {
	name, err := ParseName(filename)
	if err != nil {
		return Name{}, err
	}

	if err := afero.WriteReader(s.fs, name.String(), r); err != nil {
		return Name{}, fmt.Errorf("save recording %s: %w", name, err)
	}

	return name, nil
}

// List returns the recordings addressed to doorID, newest first. Sender
// names are resolved through doors; an unknown sender shows as "ID: <n>".
func (s *Store) List(ctx context.Context, doorID int64, doors DoorRegistry) ([]Recording, error) {
	infos, err := afero.ReadDir(s.fs, "/")
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}

	names := make(map[int64]string)
	fromName := func(id int64) string {
		if name, ok := names[id]; ok {
			return name
		}

		name := fmt.Sprintf("ID: %d", id)
		if d, err := doors.Get(ctx, id); err == nil {
			name = d.Name
		}

		names[id] = name
		return name
	}

	recordings := []Recording{}
	for _, info := range infos {
		if info.IsDir() {
			continue
		}

		name, err := ParseName(info.Name())
		if err != nil || name.To != doorID {
			continue
		}

		size := info.Size()
		modified := info.ModTime().UTC().Format(time.RFC3339Nano)

		recordings = append(recordings, Recording{
			Filename:  info.Name(),
			From:      name.From,
			To:        name.To,
			Extension: name.Extension,
			Size:      &size,
			CreatedAt: &modified,
			UpdatedAt: &modified,
			URL:       URLPrefix + info.Name(),
			FromName:  fromName(name.From),
		})
	}

	sort.SliceStable(recordings, func(i, j int) bool {
		a, b := recordings[i], recordings[j]
		if *a.UpdatedAt == *b.UpdatedAt {
			return a.Filename < b.Filename
		}

		return *a.UpdatedAt > *b.UpdatedAt
	})

	return recordings, nil
}

// Delete removes a recording addressed to doorID.
func (s *Store) Delete(doorID int64, filename string) error {
	name, err := ParseName(filename)
	if err != nil || name.To != doorID {
		return ErrNotFound
	}

	if err := s.fs.Remove(name.String()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}

		return fmt.Errorf("delete recording %s: %w", filename, err)
	}

	return nil
}

// Open returns a recording for serving. p may not escape the store.
func (s *Store) Open(p string) (afero.File, os.FileInfo, error) {
	p = strings.TrimPrefix(p, "/")
	if p == "" || strings.Contains(p, "..") {
		return nil, nil, ErrInvalidName
	}

	f, err := s.fs.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}

		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	if info.IsDir() {
		f.Close()
		return nil, nil, ErrNotFound
	}

	return f, info, nil
}
