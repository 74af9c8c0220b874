package loadgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunRejectsUnknownProfile(t *testing.T) {
	if _, err := Run(context.Background(), Config{Profile: "auth", Duration: 10 * time.Millisecond}); err == nil {
		t.Fatal("expected unknown profile error")
	}
}

func TestBuildersForProfiles(t *testing.T) {
	for _, profile := range []string{ProfileRead, ProfileMixed, ProfileErrorHeavy} {
		if len(buildersForProfile(profile)) == 0 {
			t.Fatalf("profile %s has no requests", profile)
		}
	}
}

func TestDuplicateEmailAlternatesCase(t *testing.T) {
	b := duplicateEmail()
	first := b(0, nil)
	second := b(1, nil)
	if first.method != http.MethodPost || first.path != "/users" {
		t.Fatalf("unexpected request: %+v", first)
	}
	if !strings.Contains(string(first.body), "duplicate@") || !strings.Contains(string(second.body), "DUPLICATE@") {
		t.Fatalf("expected case variants, got %s and %s", first.body, second.body)
	}
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{200: "2xx", 201: "2xx", 304: "3xx", 404: "4xx", 429: "4xx", 503: "5xx", 101: "other"}
	for code, want := range cases {
		if got := statusClass(code); got != want {
			t.Fatalf("statusClass(%d)=%s want %s", code, got, want)
		}
	}
}

func TestRunCountsStatusClasses(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		if r.Method == http.MethodPost && r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("missing json content type on %s", r.URL.Path)
		}
		if strings.HasPrefix(r.URL.Path, "/users/") && r.URL.Path != "/users/stats" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res, err := Run(context.Background(), Config{
		BaseURL:     srv.URL,
		Profile:     ProfileErrorHeavy,
		Duration:    300 * time.Millisecond,
		RPS:         50,
		Concurrency: 2,
		Seed:        7,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TotalRequests == 0 {
		t.Fatal("expected requests to be sent")
	}
	if res.Status2xx+res.Status4xx+res.Status5xx > res.TotalRequests {
		t.Fatalf("status classes exceed total: %+v", res)
	}
	if atomic.LoadInt64(&hits) < res.TotalRequests {
		t.Fatalf("server saw fewer requests than counted: hits=%d result=%+v", hits, res)
	}
}
