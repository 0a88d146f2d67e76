package runtime

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ReadyCheck is a named dependency check for /readyz.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

// RunChecks runs every check concurrently with a per-check timeout and returns
// one "name: error" entry per failure, in check order.
func RunChecks(ctx context.Context, timeout time.Duration, checks ...ReadyCheck) []string {
	results := make([]string, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		if check.Check == nil {
			continue
		}
		wg.Add(1)
		go func(i int, check ReadyCheck) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if err := check.Check(cctx); err != nil {
				name := check.Name
				if name == "" {
					name = "dependency"
				}
				results[i] = name + ": " + err.Error()
			}
		}(i, check)
	}
	wg.Wait()

	var failures []string
	for _, r := range results {
		if r != "" {
			failures = append(failures, r)
		}
	}
	return failures
}

func NewBaseMuxWithReady(checks ...ReadyCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if failures := RunChecks(r.Context(), 2*time.Second, checks...); len(failures) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(strings.Join(failures, "; ")))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
