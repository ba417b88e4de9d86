// Package storage holds the avatar object stores: GCS for hosted
// deployments, local disk for development. Objects are keyed by user id and
// overwritten in place.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var (
	ErrAvatarNotFound  = errors.New("avatar not found")
	ErrUnsupportedType = errors.New("unsupported image type")
)

// AvatarStore writes and removes a user's avatar. Put returns the public URL
// for the stored object.
type AvatarStore interface {
	Put(ctx context.Context, userID, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, userID string) error
}

func extensionFor(contentType string) (string, bool) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", true
	case "image/png":
		return ".png", true
	case "image/gif":
		return ".gif", true
	case "image/webp":
		return ".webp", true
	}
	return "", false
}

// LocalAvatarStore keeps avatars on disk, one file per user, with a JSON
// manifest mapping user id to filename so deletes survive restarts.
type LocalAvatarStore struct {
	mu       sync.Mutex
	dir      string
	manifest *manifestStore
	files    map[string]string // userID -> filename
}

func NewLocalAvatarStore(dir string) (*LocalAvatarStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	manifest, err := newManifestStore(dir, "avatars.json")
	if err != nil {
		return nil, err
	}

	files := make(map[string]string)
	if err := manifest.Load(&files); err != nil {
		return nil, err
	}

	return &LocalAvatarStore{
		dir:      dir,
		manifest: manifest,
		files:    files,
	}, nil
}

func (s *LocalAvatarStore) Put(ctx context.Context, userID, contentType string, r io.Reader) (string, error) {
	ext, ok := extensionFor(contentType)
	if !ok {
		return "", ErrUnsupportedType
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filename := userID + ext
	path := filepath.Join(s.dir, filename)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write avatar file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}

	// A re-upload with a different content type leaves the old file behind;
	// drop it.
	if prev, ok := s.files[userID]; ok && prev != filename {
		_ = os.Remove(filepath.Join(s.dir, prev))
	}

	s.files[userID] = filename
	if err := s.manifest.Save(s.files); err != nil {
		return "", err
	}
	return "/avatars/" + filename, nil
}

func (s *LocalAvatarStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filename, ok := s.files[userID]
	if !ok {
		return ErrAvatarNotFound
	}
	if err := os.Remove(filepath.Join(s.dir, filename)); err != nil && !os.IsNotExist(err) {
		return err
	}

	delete(s.files, userID)
	return s.manifest.Save(s.files)
}

// Dir exposes the directory for the static file route.
func (s *LocalAvatarStore) Dir() string { return s.dir }
