package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterRefillsPerInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Unix(0, 0)
	rl := NewRateLimiter(ctx, 2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("expected the first two requests to pass")
	}
	if rl.Allow("a") {
		t.Fatal("expected the bucket to be empty")
	}
	if !rl.Allow("b") {
		t.Fatal("buckets must be per key")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("expected a refill after one interval")
	}
}

func TestRateLimiterMiddlewareRejects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.Use(NewRateLimiter(ctx, 1, time.Hour).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}
}

func brotliRouter(body string) *gin.Engine {
	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{MinLength: 16}))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, body) })
	return r
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	body := strings.Repeat("tropism ", 64)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
	brotliRouter(body).ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("expected br encoding, headers %v", w.Header())
	}
	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	if err != nil {
		t.Fatal(err)
	}
	if string(plain) != body {
		t.Fatal("decompressed body mismatch")
	}
}

func TestBrotliSkipsSmallBodiesAndOtherClients(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "br")
	brotliRouter("tiny").ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "tiny" {
		t.Fatalf("small body must pass through, got %q", w.Body.String())
	}

	body := strings.Repeat("x", 64)
	w = httptest.NewRecorder()
	brotliRouter(body).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != body {
		t.Fatal("clients without br must get plain bodies")
	}
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.Use(NoStore())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("unexpected Cache-Control %q", w.Header().Get("Cache-Control"))
	}
}
