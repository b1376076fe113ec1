package middleware

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

type BrotliConfig struct {
	Quality   int
	MinLength int
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 512,
}

// bufferedWriter holds the whole body so the encoding can be chosen once the
// handler is done. Only mount it on bounded, non-streaming routes.
type bufferedWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (bw *bufferedWriter) Write(data []byte) (int, error) {
	return bw.buf.Write(data)
}

func (bw *bufferedWriter) WriteString(s string) (int, error) {
	return bw.buf.WriteString(s)
}

// WriteHeaderNow defers the status line until the body is finalised.
func (bw *bufferedWriter) WriteHeaderNow() {}

func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

// BrotliWithConfig compresses responses of at least MinLength bytes for
// clients that accept br.
func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < 0 || cfg.Quality > 11 {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")
		orig := c.Writer
		bw := &bufferedWriter{ResponseWriter: orig}
		c.Writer = bw
		c.Next()
		c.Writer = orig

		body := bw.buf.Bytes()
		if len(body) < cfg.MinLength {
			orig.WriteHeaderNow()
			_, _ = orig.Write(body)
			return
		}

		orig.Header().Set("Content-Encoding", "br")
		orig.Header().Del("Content-Length")
		orig.WriteHeaderNow()
		w := brotli.NewWriterLevel(orig, cfg.Quality)
		if _, err := w.Write(body); err != nil {
			_ = c.Error(err)
		}
		if err := w.Close(); err != nil {
			_ = c.Error(err)
		}
	}
}

func acceptsBrotli(r *http.Request) bool {
	ae := r.Header.Get("Accept-Encoding")
	for _, enc := range strings.Split(ae, ",") {
		enc = strings.TrimSpace(strings.SplitN(enc, ";", 2)[0])
		if strings.EqualFold(enc, "br") {
			return true
		}
	}
	return false
}
