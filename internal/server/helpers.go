package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cwbudde/minsearch/internal/problems"
)

// decodeJSON reads the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON serializes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// resultKey builds the memoization key for a run. Runs without an explicit
// seed draw one from the clock, so their results are not reproducible and
// must not be cached; those return ok false.
func resultKey(problem string, params problems.RunParams) (string, bool) {
	if params.Seed == 0 {
		return "", false
	}

	// Parallel runs interleave operator calls nondeterministically, so only
	// serial runs are reproducible enough to memoize.
	if params.Workers > 1 {
		return "", false
	}

	data, err := json.Marshal(params)
	if err != nil {
		return "", false
	}
	return problem + "\x00" + string(data), true
}
