package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GCSAvatarStore keeps avatars in one hosted bucket. The object name is
// derived from the user id and overwritten in place; each upload rotates the
// download token so stale cached URLs stop resolving.
type GCSAvatarStore struct {
	client *storage.Client
	bucket string
}

func NewGCSAvatarStore(ctx context.Context, bucket string, credentialsJSON string) (*GCSAvatarStore, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("avatar store: storage client: %w", err)
	}
	return &GCSAvatarStore{client: client, bucket: bucket}, nil
}

func (s *GCSAvatarStore) Close() error {
	return s.client.Close()
}

func avatarObjectName(userID string) string {
	return "avatars/" + userID
}

func (s *GCSAvatarStore) Put(ctx context.Context, userID, contentType string, r io.Reader) (string, error) {
	if _, ok := extensionFor(contentType); !ok {
		return "", ErrUnsupportedType
	}

	token := uuid.NewString()
	obj := s.client.Bucket(s.bucket).Object(avatarObjectName(userID))

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{
		"userId":                        userID,
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("avatar store: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("avatar store: finalize: %w", err)
	}

	return DownloadURL(s.bucket, avatarObjectName(userID), token), nil
}

func (s *GCSAvatarStore) Delete(ctx context.Context, userID string) error {
	err := s.client.Bucket(s.bucket).Object(avatarObjectName(userID)).Delete(ctx)
	if err == storage.ErrObjectNotExist {
		return ErrAvatarNotFound
	}
	return err
}

// DownloadURL builds the tokenized public URL for a stored object.
func DownloadURL(bucket, objectName, token string) string {
	return fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket,
		url.PathEscape(objectName),
		url.QueryEscape(token),
	)
}
