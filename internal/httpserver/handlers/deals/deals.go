package deals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pauljones0/dealboard/internal/countdown"
	"github.com/pauljones0/dealboard/internal/httpserver/query"
	"github.com/pauljones0/dealboard/internal/httpserver/respond"
	"github.com/pauljones0/dealboard/internal/models"
	"github.com/pauljones0/dealboard/internal/processor"
	"github.com/pauljones0/dealboard/internal/storage"
	"github.com/pauljones0/dealboard/internal/validator"
)

const (
	defaultLimit   = 50
	maxLimit       = 200
	maxSubmitBytes = 64 << 10

	// Clients reconnect after the stream ends.
	defaultMaxStream = 90 * time.Second
)

type Reader interface {
	FindDeals(ctx context.Context, f storage.DealFilter) ([]models.Deal, error)
	GetDealBySlug(ctx context.Context, slug string) (*models.Deal, error)
	ListComments(ctx context.Context, dealID string) ([]models.Comment, error)
	ListStores(ctx context.Context) ([]models.Store, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type Submitter interface {
	Submit(ctx context.Context, sub processor.Submission) (models.Deal, error)
}

type Options struct {
	Log       *slog.Logger
	Reader    Reader
	Submitter Submitter
	Timeout   time.Duration
	Now       func() time.Time
	Clock     countdown.Clock
	MaxStream time.Duration
}

type Handler struct {
	log       *slog.Logger
	reader    Reader
	submitter Submitter
	timeout   time.Duration
	now       func() time.Time
	clock     countdown.Clock
	maxStream time.Duration
}

func New(opts Options) *Handler {
	h := &Handler{
		log:       opts.Log,
		reader:    opts.Reader,
		submitter: opts.Submitter,
		timeout:   opts.Timeout,
		now:       opts.Now,
		clock:     opts.Clock,
		maxStream: opts.MaxStream,
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	if h.timeout <= 0 {
		h.timeout = 30 * time.Second
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.clock == nil {
		h.clock = countdown.SystemClock
	}
	if h.maxStream <= 0 {
		h.maxStream = defaultMaxStream
	}
	return h
}

// List serves GET /api/deals?category=&store=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := query.Limit(r, "limit", defaultLimit, maxLimit)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	filter := storage.DealFilter{
		CategorySlug: strings.TrimSpace(r.URL.Query().Get("category")),
		StoreSlug:    strings.TrimSpace(r.URL.Query().Get("store")),
		Limit:        limit,
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	deals, err := h.reader.FindDeals(ctx, filter)
	if err != nil {
		h.log.Error("list deals failed", "error", err, "rid", r.Header.Get("X-Request-Id"))
		respond.InternalError(w)
		return
	}

	now := h.now()
	views := make([]View, 0, len(deals))
	for _, d := range deals {
		views = append(views, NewView(d, now))
	}
	respond.JSON(w, http.StatusOK, map[string]any{"deals": views})
}

// Get serves GET /api/deals/{slug}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	deal, ok := h.loadDeal(ctx, w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, NewView(*deal, h.now()))
}

// Comments serves GET /api/deals/{slug}/comments as a reply tree.
func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	deal, ok := h.loadDeal(ctx, w, r)
	if !ok {
		return
	}
	comments, err := h.reader.ListComments(ctx, deal.ID)
	if err != nil {
		h.log.Error("list comments failed", "deal", deal.ID, "error", err)
		respond.InternalError(w)
		return
	}
	tree := models.Thread(comments)
	if tree == nil {
		tree = []*models.Comment{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"comments": tree, "total": len(comments)})
}

// Countdown serves GET /api/deals/{slug}/countdown as a server-sent event
// stream with one "remaining" event per second. The stream ends after the
// expired event, for deals without an expiry, or after maxStream.
func (h *Handler) Countdown(w http.ResponseWriter, r *http.Request) {
	lookupCtx, cancel := context.WithTimeout(r.Context(), h.timeout)
	deal, ok := h.loadDeal(lookupCtx, w, r)
	cancel()
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(h.maxStream + 5*time.Second)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.log.Warn("countdown write deadline not set", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.log.Error("countdown stream cannot flush", "error", err)
		return
	}

	ctx, stop := context.WithTimeout(r.Context(), h.maxStream)
	defer stop()

	for rem := range countdown.Watch(ctx, deal.ExpiresAt, h.clock) {
		payload, err := json.Marshal(rem)
		if err != nil {
			stop()
			continue
		}
		if _, err := fmt.Fprintf(w, "event: remaining\ndata: %s\n\n", payload); err != nil {
			stop()
			continue
		}
		_ = rc.Flush()
	}
}

// Create serves POST /api/deals.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.submitter == nil {
		h.log.Error("deals handler misconfigured: Submitter is nil")
		respond.InternalError(w)
		return
	}

	var sub processor.Submission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sub); err != nil {
		if errors.Is(err, io.EOF) {
			respond.BadRequest(w, "request body is required")
			return
		}
		respond.BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	deal, err := h.submitter.Submit(ctx, sub)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusCreated, NewView(deal, h.now()))
	case errors.Is(err, validator.ErrValidation):
		respond.BadRequest(w, err.Error())
	case errors.Is(err, models.ErrDealExists):
		respond.Error(w, http.StatusConflict, respond.CodeConflict, "a deal with this title already exists for the store")
	default:
		h.log.Error("submit deal failed", "error", err, "rid", r.Header.Get("X-Request-Id"))
		respond.InternalError(w)
	}
}

// Stores serves GET /api/stores.
func (h *Handler) Stores(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stores, err := h.reader.ListStores(ctx)
	if err != nil {
		h.log.Error("list stores failed", "error", err)
		respond.InternalError(w)
		return
	}
	if stores == nil {
		stores = []models.Store{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"stores": stores})
}

// Categories serves GET /api/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.reader.ListCategories(ctx)
	if err != nil {
		h.log.Error("list categories failed", "error", err)
		respond.InternalError(w)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) loadDeal(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Deal, bool) {
	slug := r.PathValue("slug")
	if slug == "" {
		respond.BadRequest(w, "slug is required")
		return nil, false
	}
	deal, err := h.reader.GetDealBySlug(ctx, slug)
	if errors.Is(err, models.ErrNotFound) {
		respond.NotFound(w, "deal not found")
		return nil, false
	}
	if err != nil {
		h.log.Error("get deal failed", "slug", slug, "error", err)
		respond.InternalError(w)
		return nil, false
	}
	return deal, true
}
