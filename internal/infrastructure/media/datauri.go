package media

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

const field = "profilePicture"

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is a decoded picture payload.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeImage accepts "data:<type>;base64,<payload>" or a bare base64 payload.
// The declared type is ignored; the content type is sniffed from the bytes.
func DecodeImage(raw string, maxSize int64) (Image, error) {
	raw = strings.TrimSpace(raw)
	payload := raw
	if strings.HasPrefix(raw, "data:") {
		comma := strings.IndexByte(raw, ',')
		if comma < 0 {
			return Image{}, domain.ErrInvalidField(field, "malformed data URI")
		}
		if !strings.HasSuffix(raw[:comma], ";base64") {
			return Image{}, domain.ErrInvalidField(field, "data URI must be base64 encoded")
		}
		payload = raw[comma+1:]
	}
	if payload == "" {
		return Image{}, domain.ErrInvalidField(field, "empty image")
	}
	if maxSize > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxSize+2 {
		return Image{}, domain.ErrInvalidField(field, "image too large")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, domain.ErrInvalidField(field, "invalid base64")
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return Image{}, domain.ErrInvalidField(field, "image too large")
	}

	mt := mimetype.Detect(data)
	ct := mt.String()
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ext, ok := allowedTypes[ct]
	if !ok {
		return Image{}, domain.ErrInvalidField(field, "unsupported image type "+ct)
	}
	return Image{Data: data, ContentType: ct, Ext: ext}, nil
}
