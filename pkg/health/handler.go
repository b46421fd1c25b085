package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// LivenessHandler always answers 200. It only shows the process is serving.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		write(w, r, http.StatusOK, &Response{Status: StatusHealthy})
	}
}

// ReadinessHandler runs checks on every request and answers 503 when any of
// them fails. Caches registered with WithCache are listed with their fill
// level.
func ReadinessHandler(checks Checks, opts ...Option) http.HandlerFunc {
	cfg := newConfig(opts...)

	return func(w http.ResponseWriter, r *http.Request) {
		resp := runChecks(r.Context(), checks, cfg)

		status := http.StatusOK
		if resp.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		write(w, r, status, resp)
	}
}

func write(w http.ResponseWriter, r *http.Request, status int, resp *Response) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text(status, resp)))
}

// text renders the plain body: "OK" or the status text, then one line per
// failed check and per cache, sorted by name.
//
//	Service Unavailable
//	redis: unhealthy: connection refused
//	entries: 812/1000 entries
func text(status int, resp *Response) string {
	var b strings.Builder
	if status == http.StatusOK {
		b.WriteString("OK")
	} else {
		b.WriteString(http.StatusText(status))
	}

	for _, name := range sortedKeys(resp.Checks) {
		if c := resp.Checks[name]; c.Status == StatusUnhealthy {
			fmt.Fprintf(&b, "\n%s: %s: %s", name, c.Status, c.Error)
		}
	}
	for _, name := range sortedKeys(resp.Caches) {
		u := resp.Caches[name]
		if u.Limit > 0 {
			fmt.Fprintf(&b, "\n%s: %d/%d entries", name, u.Entries, u.Limit)
		} else {
			fmt.Fprintf(&b, "\n%s: %d entries", name, u.Entries)
		}
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// wantsJSON checks ?format=json first, then the Accept header.
func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
