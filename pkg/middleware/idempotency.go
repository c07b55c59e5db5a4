package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	httputil "smartparking/pkg/http"
)

const (
	DefaultIdempotencyHeader = "Idempotency-Key"
	// ReplayedHeader marks responses served from the idempotency cache.
	ReplayedHeader = "Idempotent-Replayed"
)

// ErrRequestInFlight is returned by Claim while another request holds the key.
var ErrRequestInFlight = errors.New("request with this idempotency key is in progress")

// IdempotencyStore tracks idempotency keys through claim, then complete or
// release. A released key can be claimed again.
type IdempotencyStore interface {
	// Claim returns the stored response when the key already completed.
	Claim(key string) (*CachedResponse, error)
	Complete(key string, response *CachedResponse)
	Release(key string)
	Stop()
}

type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

type idempotencyEntry struct {
	response  *CachedResponse
	expiresAt time.Time
}

type InMemoryIdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]idempotencyEntry
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries: make(map[string]idempotencyEntry),
		ttl:     ttl,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go s.sweep(min(ttl, time.Hour))
	return s
}

// Claim reserves key for the caller. An in-flight entry has a nil response.
func (s *InMemoryIdempotencyStore) Claim(key string) (*CachedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if entry, ok := s.entries[key]; ok && now.Before(entry.expiresAt) {
		if entry.response == nil {
			return nil, ErrRequestInFlight
		}
		return entry.response, nil
	}

	s.entries[key] = idempotencyEntry{expiresAt: now.Add(s.ttl)}
	return nil, nil
}

func (s *InMemoryIdempotencyStore) Complete(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = idempotencyEntry{response: response, expiresAt: s.now().Add(s.ttl)}
}

func (s *InMemoryIdempotencyStore) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *InMemoryIdempotencyStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for key, entry := range s.entries {
				if !now.Before(entry.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the first successful response for a repeated POST
// carrying the same key on the same route. Failed attempts free the key so
// the client can retry; a duplicate arriving while the first is still being
// handled gets 409.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = DefaultIdempotencyHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := idempotencyKey(r, headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			cached, err := store.Claim(key)
			switch {
			case errors.Is(err, ErrRequestInFlight):
				_ = httputil.WriteJSON(w, http.StatusConflict, httputil.ErrorResponse{
					Message: "A request with this " + headerName + " is already in progress",
				})
				return
			case err != nil:
				// store unavailable: serve the request without dedup
				next.ServeHTTP(w, r)
				return
			case cached != nil:
				replay(w, cached)
				return
			}

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			completed := false
			defer func() {
				if !completed {
					store.Release(key)
				}
			}()

			next.ServeHTTP(capture, r)

			if capture.statusCode >= 200 && capture.statusCode < 300 {
				store.Complete(key, &CachedResponse{
					StatusCode: capture.statusCode,
					Headers:    w.Header().Clone(),
					Body:       bytes.Clone(capture.body.Bytes()),
				})
				completed = true
			}
		})
	}
}

// idempotencyKey scopes the caller's key to the route, so one key sent to two
// endpoints never replays the wrong response.
func idempotencyKey(r *http.Request, headerName string) string {
	if r.Method != http.MethodPost {
		return ""
	}
	key := strings.TrimSpace(r.Header.Get(headerName))
	if key == "" {
		return ""
	}
	return r.Method + " " + r.URL.Path + " " + key
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	requestIDHeader := http.CanonicalHeaderKey(RequestIDHeader)
	for name, values := range cached.Headers {
		if name == requestIDHeader {
			continue
		}
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
