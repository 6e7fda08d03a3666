// Package server exposes chart data, tweet metadata and chart previews over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"Recharted/internal/cache"
	"Recharted/internal/logger"
	"Recharted/internal/model"
	"Recharted/internal/preview"
	"Recharted/internal/recorder"
	"Recharted/internal/resolver"
)

// ChartResolver resolves chart inputs and provider symbol keys.
type ChartResolver interface {
	ResolveDetailed(ctx context.Context, input string, tf model.Timeframe, tweetTime time.Time) (*resolver.Resolution, error)
	ResolveBars(ctx context.Context, symbolKey string, tf model.Timeframe, tweetTime time.Time) (*model.PriceSeries, error)
}

// TweetResolver looks up tweet metadata. It never fails.
type TweetResolver interface {
	Lookup(ctx context.Context, id, tweetURL string) model.TweetRecord
}

// Alerter is told about every fresh resolution.
type Alerter interface {
	Observe(ctx context.Context, input string, tf model.Timeframe, res *resolver.Resolution) bool
}

// PreviewRenderer draws a series and anchors tweetTime on it.
type PreviewRenderer func(series *model.PriceSeries, tf model.Timeframe, tweetTime string) (*preview.Image, error)

// Deps are the collaborators of the server. Cache, Recorder, Alerter and
// Render are optional.
type Deps struct {
	Charts           ChartResolver
	Tweets           TweetResolver
	Cache            cache.Store
	Recorder         recorder.Recorder
	Alerter          Alerter
	Render           PreviewRenderer
	DefaultTimeframe model.Timeframe
}

// Server is the HTTP API.
type Server struct {
	addr         string
	deps         Deps
	generations  *resolver.Generations
	log          *zap.Logger
	now          func() time.Time
	srv          *http.Server
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewServer creates a server listening on addr.
func NewServer(addr string, deps Deps, readTimeout, writeTimeout time.Duration, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewMemoryStore(cache.DefaultTTL)
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	if deps.Render == nil {
		deps.Render = preview.Render
	}
	if deps.DefaultTimeframe == "" {
		deps.DefaultTimeframe = model.Timeframe1h
	}
	return &Server{
		addr:         addr,
		deps:         deps,
		generations:  resolver.NewGenerations(),
		log:          log.Named("http"),
		now:          time.Now,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/codex", s.handleCodex)
	mux.HandleFunc("GET /api/chart-data", s.handleChartData)
	mux.HandleFunc("GET /api/tweet", s.handleTweet)
	mux.HandleFunc("GET /api/chart-preview", s.handleChartPreview)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	return s.withRequestID(mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("http shutdown", zap.Error(err))
		}
	}()

	s.log.Info("http server starting", zap.String("addr", s.addr))
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = logger.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := logger.WithRequestID(r.Context(), s.log, id)

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(ctx))

		logger.FromContext(ctx, s.log).Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}
