package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type statusWriter struct {
	rw   http.ResponseWriter
	code int
	n    int
}

func (s *statusWriter) Header() http.Header  { return s.rw.Header() }
func (s *statusWriter) WriteHeader(code int) { s.code = code; s.rw.WriteHeader(code) }
func (s *statusWriter) Write(b []byte) (int, error) {
	if s.code == 0 {
		s.code = http.StatusOK
	}
	n, err := s.rw.Write(b)
	s.n += n
	return n, err
}

// wrap applies method filtering, request IDs, panic recovery, metrics and
// access logging.
func (h *handler) wrap(name, method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if rid == "" {
			rid = genReqID()
		}
		w.Header().Set("X-Request-ID", rid)

		start := time.Now()
		sw := &statusWriter{rw: w}

		func() {
			defer func() {
				if rec := recover(); rec != nil {
					if h.opts.Logger != nil {
						h.opts.Logger.Error("panic: %v request_id=%s", rec, rid)
					}
					if sw.code == 0 {
						sw.WriteHeader(http.StatusInternalServerError)
					}
				}
			}()

			if r.Method != method {
				sw.Header().Set("Allow", method)
				http.Error(sw, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			next(sw, r)
		}()

		if sw.code == 0 {
			sw.code = http.StatusOK
		}
		h.metrics.inc(name, sw.code)

		if h.opts.Logger != nil {
			h.opts.Logger.Info("%s %s -> %d %dB in %s request_id=%s",
				r.Method, r.URL.RequestURI(), sw.code, sw.n, time.Since(start), rid)
		}
	}
}

// genReqID returns a random 16-byte hex string.
func genReqID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

type endpointMetrics struct {
	c2xx   uint64
	c4xx   uint64
	c5xx   uint64
	cOther uint64
}

type metricsRecorder struct {
	mu sync.Mutex
	by map[string]*endpointMetrics
}

func newMetricsRecorder() *metricsRecorder {
	return &metricsRecorder{by: make(map[string]*endpointMetrics)}
}

func (m *metricsRecorder) inc(name string, code int) {
	m.mu.Lock()
	em, ok := m.by[name]
	if !ok {
		em = &endpointMetrics{}
		m.by[name] = em
	}
	m.mu.Unlock()

	switch code / 100 {
	case 2:
		atomic.AddUint64(&em.c2xx, 1)
	case 4:
		atomic.AddUint64(&em.c4xx, 1)
	case 5:
		atomic.AddUint64(&em.c5xx, 1)
	default:
		atomic.AddUint64(&em.cOther, 1)
	}
}

func (m *metricsRecorder) serveMetrics(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	names := make([]string, 0, len(m.by))
	for name := range m.by {
		names = append(names, name)
	}
	m.mu.Unlock()
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "# TYPE wasmast_requests_total counter\n")
	for _, name := range names {
		m.mu.Lock()
		em := m.by[name]
		m.mu.Unlock()
		fmt.Fprintf(&b, "wasmast_requests_total{handler=\"%s\",class=\"2xx\"} %d\n", name, atomic.LoadUint64(&em.c2xx))
		fmt.Fprintf(&b, "wasmast_requests_total{handler=\"%s\",class=\"4xx\"} %d\n", name, atomic.LoadUint64(&em.c4xx))
		fmt.Fprintf(&b, "wasmast_requests_total{handler=\"%s\",class=\"5xx\"} %d\n", name, atomic.LoadUint64(&em.c5xx))
		fmt.Fprintf(&b, "wasmast_requests_total{handler=\"%s\",class=\"other\"} %d\n", name, atomic.LoadUint64(&em.cOther))
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}
