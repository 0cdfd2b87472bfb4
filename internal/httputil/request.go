package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxBodyBytes leaves room for a file at MaxFileContentBytes plus its JSON envelope
const maxBodyBytes = 10 << 20

// ParseJSON decodes the request body into dest. Unknown fields are ignored;
// request structs are validated by the services.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
