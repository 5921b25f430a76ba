package proxy

import (
	"encoding/json"
	"net/http"

	"github.com/arcauth/gateway/internal/apierr"
)

// writeError renders the proxy's own error body — {"error":{"code","message"}}
// with Content-Length set and CORS headers present, per spec §4.5's closing
// paragraph — distinct from the upstream's own response body, which the
// proxy never touches on success.
func writeError(w http.ResponseWriter, err error) {
	envelope, status := apierr.ToEnvelope(err)
	body, marshalErr := json.Marshal(envelope)
	if marshalErr != nil {
		body = []byte(`{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}`)
		status = http.StatusInternalServerError
	}

	h := w.Header()
	h.Set("Content-Type", "application/json")
	applyCORSHeaders(h)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
