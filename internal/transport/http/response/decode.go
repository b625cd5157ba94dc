package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

// DecodeJSON decodes a JSON request body into dst.
// Unknown fields are ignored; multiple JSON values are rejected.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.ErrInvalidField("body", "request body too large")
		}
		return domain.ErrInvalidJSON(err)
	}

	// Disallow trailing data: {}{}
	if err := dec.Decode(&struct{}{}); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.ErrInvalidJSON(err)
	}

	return domain.ErrInvalidJSON(errors.New("multiple JSON values"))
}
