package sitemap

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pauljones0/dealboard/internal/cache"
	"github.com/pauljones0/dealboard/internal/sitemap"
)

const cacheKey = "sitemap.xml"

type Builder interface {
	Build(ctx context.Context) []sitemap.Entry
}

type Options struct {
	Log      *slog.Logger
	Builder  Builder
	Cache    cache.Cache
	CacheTTL time.Duration
	Timeout  time.Duration
}

// NewGetHandler serves GET /sitemap.xml. Rendered output is cached for
// CacheTTL; degraded (static-only) builds are served but still cached, so a
// database outage does not turn into a request storm.
func NewGetHandler(opts Options) http.HandlerFunc {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if opts.Cache == nil {
		opts.Cache = cache.Noop{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), opts.Timeout)
		defer cancel()

		body, hit, err := opts.Cache.Get(ctx, cacheKey)
		if err != nil {
			log.Warn("sitemap cache read failed", "error", err)
		}
		if !hit {
			var buf bytes.Buffer
			if err := sitemap.WriteXML(&buf, opts.Builder.Build(ctx)); err != nil {
				log.Error("render sitemap failed", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			body = buf.Bytes()
			if err := opts.Cache.Set(ctx, cacheKey, body, opts.CacheTTL); err != nil {
				log.Warn("sitemap cache write failed", "error", err)
			}
		}

		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(body)
	}
}
