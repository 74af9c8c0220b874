package loadgen

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/observability"
)

const (
	ProfileRead       = "read"
	ProfileMixed      = "mixed"
	ProfileErrorHeavy = "error-heavy"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
}

type request struct {
	method string
	path   string
	body   []byte
}

// requestFunc builds the i-th request of a profile. Builders that need
// randomness draw from the shared, seeded source.
type requestFunc func(i int, rnd *lockedRand) request

type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5000"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	profile := strings.ToLower(strings.TrimSpace(cfg.Profile))
	if profile == "" {
		profile = ProfileMixed
	}
	builders := buildersForProfile(profile)
	if len(builders) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	client := &http.Client{Timeout: 5 * time.Second}
	rnd := &lockedRand{rnd: rand.New(rand.NewSource(cfg.Seed))}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var total, failures, s2xx, s4xx, s5xx int64
	jobs := make(chan request, cfg.Concurrency*2)
	wg := sync.WaitGroup{}

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				req, err := http.NewRequestWithContext(ctx, job.method, baseURL+job.path, bytes.NewReader(job.body))
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				if job.body != nil {
					req.Header.Set("Content-Type", "application/json")
				}
				resp, err := client.Do(req)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				_ = resp.Body.Close()
				atomic.AddInt64(&total, 1)
				class := statusClass(resp.StatusCode)
				switch class {
				case "2xx":
					atomic.AddInt64(&s2xx, 1)
				case "4xx":
					atomic.AddInt64(&s4xx, 1)
				case "5xx":
					atomic.AddInt64(&s5xx, 1)
				}
				observability.RecordLoadgenRequest(ctx, class, profile)
			}
		}()
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return Result{TotalRequests: total, Failures: failures, Status2xx: s2xx, Status4xx: s4xx, Status5xx: s5xx}, nil
		case <-ticker.C:
			job := builders[i%len(builders)](i, rnd)
			select {
			case jobs <- job:
			case <-ctx.Done():
			}
			i++
		}
	}
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "other"
	}
}

func get(path string) requestFunc {
	return func(int, *lockedRand) request { return request{method: http.MethodGet, path: path} }
}

func createUser(emailPrefix string) requestFunc {
	return func(i int, rnd *lockedRand) request {
		body := fmt.Sprintf(`{"email":"%s-%d-%d@loadgen.local","name":"Load User %d","password":"loadgen-password"}`,
			emailPrefix, i, rnd.Intn(1_000_000), i)
		return request{method: http.MethodPost, path: "/users", body: []byte(body)}
	}
}

func duplicateEmail() requestFunc {
	return func(i int, _ *lockedRand) request {
		email := "duplicate@loadgen.local"
		if i%2 == 1 {
			email = "DUPLICATE@loadgen.local"
		}
		body := fmt.Sprintf(`{"email":"%s","name":"Duplicate","password":"loadgen-password"}`, email)
		return request{method: http.MethodPost, path: "/users", body: []byte(body)}
	}
}

func buildersForProfile(profile string) []requestFunc {
	read := []requestFunc{
		get("/api/health"),
		get("/users?page=1&limit=10"),
		get("/users/stats"),
		get("/users/active?limit=20"),
		get("/users/recent?days=7"),
		get("/users/nearby?lat=40.7128&lng=-74.006&radiusKm=25"),
	}
	switch profile {
	case ProfileRead:
		return read
	case ProfileMixed:
		return append(read,
			createUser("mixed"),
			get("/users?page=2&limit=5&sort=createdAt&order=asc"),
			get("/users/"+uuid.NewString()),
		)
	case ProfileErrorHeavy:
		return []requestFunc{
			get("/users/" + uuid.NewString()),
			get("/users/not-a-valid-id"),
			duplicateEmail(),
			get("/users?limit=1000"),
			get("/users/nearby?lat=abc"),
			get("/no-such-route"),
		}
	default:
		return nil
	}
}
