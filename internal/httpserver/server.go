package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pauljones0/dealboard/internal/cache"
	"github.com/pauljones0/dealboard/internal/config"
	"github.com/pauljones0/dealboard/internal/httpserver/handlers/deals"
	"github.com/pauljones0/dealboard/internal/httpserver/handlers/extract"
	lbhandler "github.com/pauljones0/dealboard/internal/httpserver/handlers/leaderboard"
	mphandler "github.com/pauljones0/dealboard/internal/httpserver/handlers/marketplace"
	"github.com/pauljones0/dealboard/internal/httpserver/handlers/meta"
	smhandler "github.com/pauljones0/dealboard/internal/httpserver/handlers/sitemap"
	"github.com/pauljones0/dealboard/internal/httpserver/middleware"
	"github.com/pauljones0/dealboard/internal/metrics"
)

type Server struct {
	log     *slog.Logger
	mux     *http.ServeMux
	metrics *metrics.Metrics
}

func New(log *slog.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{log: log, mux: http.NewServeMux(), metrics: m}
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	if s.metrics != nil {
		h = middleware.Observe(s.metrics, h)
	}
	h = middleware.WithRequestID(h)
	h = middleware.RecoverPanic(s.log, h)
	h = middleware.AccessLog(s.log, h)
	return h
}

type Deps struct {
	Deals       deals.Reader
	Submitter   deals.Submitter
	Extractor   extract.Extractor
	Validator   extract.StructValidator
	Sitemap     smhandler.Builder
	Leaderboard lbhandler.Loader
	Snapshots   lbhandler.Snapshots
	Marketplace mphandler.Client
	Cache       cache.Cache
	Firebase    config.FirebaseWebConfig

	SitemapCacheTTL      time.Duration
	LeaderboardMaxAge    time.Duration
	MaxExtractImageBytes int
	Timeout              time.Duration
}

func (s *Server) RegisterRoutes(dep Deps) {
	dh := deals.New(deals.Options{
		Log:       s.log,
		Reader:    dep.Deals,
		Submitter: dep.Submitter,
		Timeout:   dep.Timeout,
	})
	s.mux.HandleFunc("GET /api/deals", dh.List)
	s.mux.HandleFunc("POST /api/deals", dh.Create)
	s.mux.HandleFunc("GET /api/deals/{slug}", dh.Get)
	s.mux.HandleFunc("GET /api/deals/{slug}/comments", dh.Comments)
	s.mux.HandleFunc("GET /api/deals/{slug}/countdown", dh.Countdown)
	s.mux.HandleFunc("GET /api/stores", dh.Stores)
	s.mux.HandleFunc("GET /api/categories", dh.Categories)

	var observer extract.Observer
	if s.metrics != nil {
		observer = s.metrics
	}
	s.mux.HandleFunc("POST /api/extract-deal", extract.NewPostHandler(extract.Options{
		Log:       s.log,
		Extractor: dep.Extractor,
		Validator: dep.Validator,
		Metrics:   observer,
		// base64 inflates by 4/3; leave room for the JSON wrapper.
		MaxBodyBytes: int64(dep.MaxExtractImageBytes)*4/3 + 1024,
	}))

	s.mux.HandleFunc("GET /api/leaderboard", lbhandler.NewGetHandler(lbhandler.Options{
		Log:       s.log,
		Loader:    dep.Leaderboard,
		Snapshots: dep.Snapshots,
		MaxAge:    dep.LeaderboardMaxAge,
		Timeout:   dep.Timeout,
	}))

	mp := mphandler.Options{Log: s.log, Client: dep.Marketplace, Timeout: dep.Timeout}
	s.mux.HandleFunc("GET /api/marketplace/search", mphandler.NewSearchHandler(mp))
	s.mux.HandleFunc("GET /api/marketplace/listings/{id}", mphandler.NewListingHandler(mp))

	s.mux.HandleFunc("GET /sitemap.xml", smhandler.NewGetHandler(smhandler.Options{
		Log:      s.log,
		Builder:  dep.Sitemap,
		Cache:    dep.Cache,
		CacheTTL: dep.SitemapCacheTTL,
		Timeout:  dep.Timeout,
	}))

	s.mux.HandleFunc("GET /api/config/firebase", meta.NewFirebaseConfigHandler(dep.Firebase))
	s.mux.HandleFunc("GET /health", meta.Health)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}
