package proxy

import "net/http"

// writeCORSPreflight answers an OPTIONS request per spec §4.5 step 1.
// The gateway fronts browser clients whose origin varies by deployment,
// so it allows any origin rather than maintaining an allow-list.
func writeCORSPreflight(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
	h.Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusNoContent)
}

// applyCORSHeaders is added to every non-preflight response per step 8:
// always present, regardless of auth outcome.
func applyCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Expose-Headers", "X-Token-Refresh")
}
