package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/coldvault/core/pkg/ids"
)

// bearerToken extracts the token from an "Authorization: Bearer ..." header,
// returning "" if the header is absent or malformed — ValidateToken rejects
// an empty string the same way it rejects any other garbage.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}

// requestorUserID reads the caller's user id from the X-User-Id header.
// Endpoints gated on a specific file's uploader (delete_files) use this
// rather than the service-principal token, since the caller here is an
// end user forwarded through a trusted frontend rather than another
// component.
func requestorUserID(r *http.Request) (ids.UserId, error) {
	raw := r.Header.Get("X-User-Id")
	if raw == "" {
		return ids.UserId{}, errors.New("missing X-User-Id header")
	}
	return ids.ParseUserId(raw)
}
