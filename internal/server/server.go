// Package server exposes the lexer, parser and linker over HTTP. The same
// handler is served over TCP by net/http and over QUIC by HTTP3Server.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/orizon-lang/wasmast/internal/cli"
	"github.com/orizon-lang/wasmast/internal/errors"
	"github.com/orizon-lang/wasmast/internal/lexer"
	"github.com/orizon-lang/wasmast/internal/linker"
	"github.com/orizon-lang/wasmast/internal/parser"
	"github.com/orizon-lang/wasmast/internal/position"
)

// DefaultMaxBodyBytes bounds request bodies when Options.MaxBodyBytes is 0.
const DefaultMaxBodyBytes = 1 << 20

// Options configures the handler
type Options struct {
	// Logger receives access log lines at Info level and recovered panics
	// at Error level. Nil disables logging.
	Logger *cli.Logger

	MaxBodyBytes int64

	// Manifest backs POST /check. Without it /check only parses.
	Manifest *linker.Manifest
}

type handler struct {
	opts    Options
	metrics *metricsRecorder
	sf      singleflight.Group
}

// NewHandler returns the service handler:
//
//	GET  /healthz
//	GET  /metrics
//	POST /tokens
//	POST /parse[?index=1]
//	POST /check
func NewHandler(opts Options) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	h := &handler{opts: opts, metrics: newMetricsRecorder()}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.wrap("healthz", http.MethodGet, h.serveHealth))
	mux.HandleFunc("/metrics", h.wrap("metrics", http.MethodGet, h.metrics.serveMetrics))
	mux.HandleFunc("/tokens", h.wrap("tokens", http.MethodPost, h.serveTokens))
	mux.HandleFunc("/parse", h.wrap("parse", http.MethodPost, h.serveParse))
	mux.HandleFunc("/check", h.wrap("check", http.MethodPost, h.serveCheck))
	return mux
}

// ErrorBody is the JSON shape of a rejected source
type ErrorBody struct {
	Category   string   `json:"category"`
	Code       string   `json:"code,omitempty"`
	Message    string   `json:"message"`
	Offset     int      `json:"offset"`
	Line       int      `json:"line"`
	Column     int      `json:"column"`
	Incomplete bool     `json:"incomplete,omitempty"`
	Link       []string `json:"link,omitempty"`
}

// TokenBody is the JSON shape of one token
type TokenBody struct {
	Kind   string `json:"kind"`
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

// response is what singleflight shares between identical requests.
type response struct {
	status int
	body   []byte
}

func (h *handler) serveHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []byte(`{"status":"ok"}`))
}

func (h *handler) serveTokens(w http.ResponseWriter, r *http.Request) {
	h.shared(w, r, func(source string) response {
		tokens, err := lexer.Tokenize(source)
		if err != nil {
			return errorResponse(source, err)
		}
		out := make([]TokenBody, len(tokens))
		for i, tok := range tokens {
			out[i] = TokenBody{Kind: tok.Kind.String(), Text: tok.Text, Offset: tok.Offset}
		}
		return jsonResponse(http.StatusOK, out)
	})
}

func (h *handler) serveParse(w http.ResponseWriter, r *http.Request) {
	index, _ := strconv.ParseBool(r.URL.Query().Get("index"))
	h.shared(w, r, func(source string) response {
		program, err := parser.Parse(source, parser.Options{Index: index})
		if err != nil {
			return errorResponse(source, err)
		}
		return jsonResponse(http.StatusOK, program)
	})
}

func (h *handler) serveCheck(w http.ResponseWriter, r *http.Request) {
	h.shared(w, r, func(source string) response {
		program, err := parser.Parse(source, parser.Options{Index: true})
		if err != nil {
			return errorResponse(source, err)
		}
		if h.opts.Manifest == nil {
			return jsonResponse(http.StatusOK, map[string]bool{"ok": true})
		}
		if err := linker.Check(program, h.opts.Manifest); err != nil {
			body := ErrorBody{Category: "LINK", Message: "unsatisfied imports"}
			var joined interface{ Unwrap() []error }
			if stderrors.As(err, &joined) {
				for _, e := range joined.Unwrap() {
					body.Link = append(body.Link, e.Error())
				}
			}
			return jsonResponse(http.StatusUnprocessableEntity, map[string]ErrorBody{"error": body})
		}
		return jsonResponse(http.StatusOK, map[string]bool{"ok": true})
	})
}

// shared reads the body and runs fn once for all concurrent requests with
// the same path, query and body.
func (h *handler) shared(w http.ResponseWriter, r *http.Request, fn func(source string) response) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	sum := sha256.Sum256(data)
	key := r.URL.Path + "?" + r.URL.RawQuery + "#" + hex.EncodeToString(sum[:])

	v, _, _ := h.sf.Do(key, func() (interface{}, error) {
		return fn(string(data)), nil
	})
	resp := v.(response)
	writeJSON(w, resp.status, resp.body)
}

func errorResponse(source string, err error) response {
	located := position.NewSourceFile("", source).Locate(err)
	offset, _ := errors.OffsetOf(err)
	body := ErrorBody{
		Category:   string(errors.CategoryOf(err)),
		Code:       string(errors.CodeOf(err)),
		Message:    err.Error(),
		Offset:     offset,
		Line:       located.Pos.Line,
		Column:     located.Pos.Column,
		Incomplete: errors.IsIncomplete(err),
	}
	return jsonResponse(http.StatusUnprocessableEntity, map[string]ErrorBody{"error": body})
}

func jsonResponse(status int, v interface{}) response {
	data, err := json.Marshal(v)
	if err != nil {
		return response{
			status: http.StatusInternalServerError,
			body:   []byte(`{"error":{"category":"INTERNAL","message":` + strconv.Quote(err.Error()) + `}}`),
		}
	}
	return response{status: status, body: data}
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

// Serve runs h on ln until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ListenAndServe listens on addr and calls Serve.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, h)
}
