package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"Recharted/internal/anchor"
	"Recharted/internal/cache"
	"Recharted/internal/interval"
	"Recharted/internal/logger"
	"Recharted/internal/model"
	"Recharted/internal/recorder"
	"Recharted/internal/resolver"
	"Recharted/internal/tweet"
)

// chartQuery holds the common chart parameters.
type chartQuery struct {
	input     string
	tf        model.Timeframe
	tweetRaw  string
	tweetTime time.Time // zero when absent or unparseable
}

func (s *Server) parseChartQuery(r *http.Request, inputParam string) chartQuery {
	q := r.URL.Query()
	cq := chartQuery{
		input:    strings.TrimSpace(q.Get(inputParam)),
		tf:       model.Timeframe(q.Get("timeframe")),
		tweetRaw: strings.TrimSpace(q.Get("tweetTimestamp")),
	}
	if cq.tf == "" {
		cq.tf = s.deps.DefaultTimeframe
	}
	cq.tf = interval.Normalize(cq.tf)
	if cq.tweetRaw != "" {
		if t, ok := anchor.ParseTime(cq.tweetRaw, s.now()); ok {
			cq.tweetTime = t
		} else {
			logger.FromContext(r.Context(), s.log).Info("ignoring unparseable tweetTimestamp", zap.String("value", cq.tweetRaw))
		}
	}
	return cq
}

func (s *Server) handleCodex(w http.ResponseWriter, r *http.Request) {
	cq := s.parseChartQuery(r, "symbol")
	if cq.input == "" {
		writeError(w, r, http.StatusBadRequest, "Missing symbol parameter", nil)
		return
	}
	log := logger.FromContext(r.Context(), s.log)

	series, err := s.deps.Charts.ResolveBars(r.Context(), cq.input, cq.tf, cq.tweetTime)
	if err != nil {
		var predates *resolver.PredatesHistoryError
		if errors.As(err, &predates) {
			writePredates(w, r, predates)
			return
		}
		status, msg := statusFor(err)
		log.Warn("codex bars failed", zap.String("symbol", cq.input), zap.Int("status", status), zap.Error(err))
		writeError(w, r, status, msg, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	cq := s.parseChartQuery(r, "chartUrl")
	if cq.input == "" {
		writeError(w, r, http.StatusBadRequest, "Missing chartUrl parameter", nil)
		return
	}

	client := r.Header.Get("X-Client-ID")
	var gen uint64
	if client != "" {
		gen = s.generations.Issue(client)
		defer s.generations.Done(client, gen)
	}

	entry, err := s.resolveChart(r.Context(), cq)
	if client != "" && !s.generations.Current(client, gen) {
		logger.FromContext(r.Context(), s.log).Info("dropping superseded response",
			zap.String("client", client),
			zap.Uint64("generation", gen),
			zap.Int("clients_in_flight", s.generations.Len()),
		)
		writeError(w, r, http.StatusConflict, "superseded", nil)
		return
	}
	if err != nil {
		var predates *resolver.PredatesHistoryError
		if errors.As(err, &predates) {
			writePredates(w, r, predates)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Failed to resolve chart data", err)
		return
	}

	writeJSON(w, http.StatusOK, chartDataResponse{
		PriceSeries: entry.Series,
		Metadata: chartMetadata{
			Source:     entry.Series.Source,
			Provider:   entry.Provider,
			DataPoints: entry.Series.Len(),
			IsRealData: entry.Series.Source.IsReal(),
			FetchedAt:  model.FormatTimestamp(entry.ResolvedAt),
		},
	})
}

// resolveChart reads through the cache. Fresh resolutions are recorded and
// passed to the alerter.
func (s *Server) resolveChart(ctx context.Context, cq chartQuery) (*cache.Entry, error) {
	log := logger.FromContext(ctx, s.log)
	key := cache.Key(cq.input, cq.tf, cq.tweetTime)
	if e, ok := s.deps.Cache.Get(ctx, key); ok {
		log.Debug("cache hit", zap.String("key", key))
		return e, nil
	}

	res, err := s.deps.Charts.ResolveDetailed(ctx, cq.input, cq.tf, cq.tweetTime)
	if err != nil {
		var predates *resolver.PredatesHistoryError
		if errors.As(err, &predates) {
			s.record(log, cq, nil, predates)
		}
		return nil, err
	}

	entry := &cache.Entry{
		Series:     res.Series,
		Provider:   res.Provider,
		Step:       res.Step,
		ResolvedAt: res.ResolvedAt,
	}
	if err := s.deps.Cache.Set(ctx, key, entry); err != nil {
		log.Warn("cache set", zap.String("key", key), zap.Error(err))
	}
	s.record(log, cq, res, nil)
	if s.deps.Alerter != nil {
		go s.deps.Alerter.Observe(context.WithoutCancel(ctx), cq.input, cq.tf, res)
	}
	return entry, nil
}

func (s *Server) record(log *zap.Logger, cq chartQuery, res *resolver.Resolution, predates *resolver.PredatesHistoryError) {
	evt := &recorder.ResolutionEvent{
		Input:      cq.input,
		Timeframe:  string(cq.tf),
		TweetTime:  cq.tweetTime,
		ResolvedAt: s.now(),
	}
	var series *model.PriceSeries
	if res != nil {
		series = res.Series
		evt.Provider = res.Provider
		evt.Step = res.Step
		evt.MarketCapBranch = string(res.MarketCapBranch)
		if res.PrimaryErr != nil {
			evt.PrimaryError = res.PrimaryErr.Error()
		}
	}
	if predates != nil {
		series = predates.Series
		evt.Step = resolver.StepPrimary
		evt.PredatesHistory = true
	}
	if series != nil {
		evt.Symbol = series.Symbol
		evt.Source = string(series.Source)
		evt.DataPoints = series.Len()
	}
	if err := s.deps.Recorder.RecordResolution(evt); err != nil {
		log.Error("record resolution", zap.Error(err))
	}
}

func (s *Server) handleTweet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := strings.TrimSpace(q.Get("id"))
	tweetURL := strings.TrimSpace(q.Get("url"))
	if id == "" && tweetURL == "" {
		writeError(w, r, http.StatusBadRequest, "Missing id or url parameter", nil)
		return
	}

	rec := s.deps.Tweets.Lookup(r.Context(), id, tweetURL)
	query := id
	if query == "" {
		query = tweetURL
	}
	if err := s.deps.Recorder.RecordTweetLookup(&recorder.TweetLookupEvent{
		Query:       query,
		Handle:      rec.Handle,
		Timestamp:   rec.Timestamp,
		Placeholder: rec.Text == tweet.PlaceholderText,
		LookedUpAt:  s.now(),
	}); err != nil {
		logger.FromContext(r.Context(), s.log).Error("record tweet lookup", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleChartPreview(w http.ResponseWriter, r *http.Request) {
	cq := s.parseChartQuery(r, "chartUrl")
	if cq.input == "" {
		writeError(w, r, http.StatusBadRequest, "Missing chartUrl parameter", nil)
		return
	}
	log := logger.FromContext(r.Context(), s.log)

	var series *model.PriceSeries
	entry, err := s.resolveChart(r.Context(), cq)
	if err != nil {
		var predates *resolver.PredatesHistoryError
		if !errors.As(err, &predates) || predates.Series == nil {
			writeError(w, r, http.StatusInternalServerError, "Failed to resolve chart data", err)
			return
		}
		// The preview still shows what history exists.
		series = predates.Series
	} else {
		series = entry.Series
	}

	img, err := s.deps.Render(series, cq.tf, cq.tweetRaw)
	if err != nil {
		log.Error("render preview", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Failed to render chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Anchor-X", fmt.Sprintf("%.1f", img.Anchor.PixelX))
	w.Header().Set("X-Anchor-Y", fmt.Sprintf("%.1f", img.Anchor.PixelY))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.PNG); err != nil {
		log.Warn("write preview", zap.Error(err))
	}
}
