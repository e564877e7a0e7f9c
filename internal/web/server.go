package web

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cgi"
	"strings"
	"time"
)

// ListenAndServe serves h on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return Serve(ctx, ln, h, logger)
}

// Serve serves h on ln until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           Wrap(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	logger.Info("server started", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	}
}

// ServeCGI handles the single request described by the CGI environment env,
// reading the body from stdin and writing the CGI response to stdout.
// PATH_INFO supplies the request path the handler sees.
func ServeCGI(env map[string]string, stdin io.Reader, stdout io.Writer, h http.Handler) error {
	req, err := cgi.RequestFromMap(env)
	if err != nil {
		return fmt.Errorf("cgi request: %w", err)
	}
	req.URL.Path = env["PATH_INFO"]
	req.URL.RawPath = ""
	if req.ContentLength > 0 {
		req.Body = io.NopCloser(io.LimitReader(stdin, req.ContentLength))
	} else {
		req.Body = http.NoBody
	}

	rw := newCGIResponse(stdout)
	SecurityHeaders(h).ServeHTTP(rw, req)
	return rw.finish()
}

// cgiResponse writes a CGI response: a Status header line, the headers and
// the body.
type cgiResponse struct {
	header      http.Header
	bw          *bufio.Writer
	wroteHeader bool
}

func newCGIResponse(w io.Writer) *cgiResponse {
	return &cgiResponse{header: make(http.Header), bw: bufio.NewWriter(w)}
}

func (r *cgiResponse) Header() http.Header {
	return r.header
}

func (r *cgiResponse) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	if r.header.Get("Content-Type") == "" {
		r.header.Set("Content-Type", "text/html; charset=utf-8")
	}
	fmt.Fprintf(r.bw, "Status: %d %s\r\n", code, http.StatusText(code))
	r.header.Write(r.bw)
	r.bw.WriteString("\r\n")
}

func (r *cgiResponse) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.bw.Write(p)
}

func (r *cgiResponse) finish() error {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.bw.Flush()
}

// EnvMap turns KEY=VALUE pairs into a map. Later pairs win.
func EnvMap(env []string) map[string]string {
	m := make(map[string]string, len(env))
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			m[k] = v
		}
	}
	return m
}
