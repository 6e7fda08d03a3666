// Package tweet resolves tweet URLs to the author, text and time shown on
// the chart overlay.
package tweet

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"Recharted/internal/model"
)

// DefaultSyndicationURL is the public embed syndication host.
const DefaultSyndicationURL = "https://cdn.syndication.twimg.com"

// PlaceholderText is shown when a tweet cannot be loaded.
const PlaceholderText = "Sorry, this tweet could not be loaded. The chart is shown without it."

const (
	unknownUser   = "unknown"
	unknownHandle = "@unknown"
)

// Resolver looks tweets up through the syndication endpoint. It never fails:
// on error it returns a placeholder record.
type Resolver struct {
	BaseURL string
	Client  *http.Client
	log     *zap.Logger
	now     func() time.Time
}

// NewResolver creates a tweet resolver.
func NewResolver(baseURL string, client *http.Client, log *zap.Logger) *Resolver {
	if baseURL == "" {
		baseURL = DefaultSyndicationURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{BaseURL: strings.TrimRight(baseURL, "/"), Client: client, log: log, now: time.Now}
}

type syndicationTweet struct {
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	User      struct {
		Name            string `json:"name"`
		ScreenName      string `json:"screen_name"`
		ProfileImageURL string `json:"profile_image_url_https"`
	} `json:"user"`
}

// Resolve resolves a tweet URL or bare id.
func (r *Resolver) Resolve(ctx context.Context, tweetURL string) model.TweetRecord {
	return r.Lookup(ctx, "", tweetURL)
}

// Lookup resolves by id when given, otherwise by the id found in tweetURL.
func (r *Resolver) Lookup(ctx context.Context, id, tweetURL string) model.TweetRecord {
	now := r.now()
	var handle string
	if id == "" {
		var ok bool
		id, handle, ok = ExtractID(tweetURL)
		if !ok {
			r.log.Info("no tweet id in url", zap.String("url", tweetURL))
			return placeholder(now)
		}
	} else if _, h, ok := ExtractID(tweetURL); ok {
		handle = h
	}

	st, err := r.fetch(ctx, id)
	if err != nil {
		r.log.Warn("tweet lookup failed", zap.String("id", id), zap.Error(err))
		return placeholder(now)
	}

	rec := model.TweetRecord{
		Username:     st.User.Name,
		Handle:       "@" + st.User.ScreenName,
		Text:         html.UnescapeString(st.Text),
		ProfileImage: strings.Replace(st.User.ProfileImageURL, "_normal.", "_400x400.", 1),
	}
	if st.User.ScreenName == "" {
		rec.Handle = handleOrUnknown(handle)
	}
	if rec.Username == "" {
		rec.Username = strings.TrimPrefix(rec.Handle, "@")
	}
	ts, ok := parseCreatedAt(st.CreatedAt)
	if !ok {
		r.log.Debug("created_at missing, decoding id", zap.String("id", id), zap.String("created_at", st.CreatedAt))
		ts, ok = SnowflakeTime(id, now)
		if !ok {
			ts = now
		}
	}
	rec.Timestamp = model.FormatTimestamp(ts)
	return rec
}

func (r *Resolver) fetch(ctx context.Context, id string) (*syndicationTweet, error) {
	q := url.Values{}
	q.Set("id", id)
	q.Set("token", Token(id))
	q.Set("lang", "en")
	endpoint := r.BaseURL + "/tweet-result?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("syndication fetch: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("syndication read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("syndication: status %d", resp.StatusCode)
	}
	var st syndicationTweet
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("syndication decode: %w", err)
	}
	if st.Text == "" && st.User.ScreenName == "" {
		return nil, fmt.Errorf("syndication: empty tweet %s", id)
	}
	return &st, nil
}

func parseCreatedAt(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RubyDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func placeholder(now time.Time) model.TweetRecord {
	return model.TweetRecord{
		Username:  unknownUser,
		Handle:    unknownHandle,
		Text:      PlaceholderText,
		Timestamp: model.FormatTimestamp(now),
	}
}

func handleOrUnknown(handle string) string {
	if handle == "" {
		return unknownHandle
	}
	return "@" + handle
}
