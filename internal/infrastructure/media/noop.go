package media

import "context"

// NoopStore validates the picture and stores the data URI itself as the URL.
// Used in dev when no object storage is configured.
type NoopStore struct {
	maxSize int64
}

func NewNoopStore(maxSize int64) *NoopStore {
	return &NoopStore{maxSize: maxSize}
}

func (s *NoopStore) Upload(ctx context.Context, raw string) (string, error) {
	if _, err := DecodeImage(raw, s.maxSize); err != nil {
		return "", err
	}
	return raw, nil
}
