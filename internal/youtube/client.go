package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adilhusain01/campayn/internal/model"
)

// Costs are the quota units charged per call type.
type Costs struct {
	Video   int
	Channel int
	Search  int
}

// DefaultCosts match the YouTube Data API v3 price list.
var DefaultCosts = Costs{Video: 1, Channel: 1, Search: 100}

// Client calls the YouTube Data API under a shared QuotaTracker.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	quota   *QuotaTracker
	retry   RetryPolicy
	costs   Costs
	log     zerolog.Logger
	observe func(endpoint, outcome string)
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

func WithCosts(costs Costs) Option {
	return func(c *Client) { c.costs = costs }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l.With().Str("component", "youtube").Logger() }
}

// WithClock sets the clock used to resolve date-form Retry-After headers.
// It should be the same clock the QuotaTracker uses.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithObserver installs a hook called once per finished request with the
// endpoint name and an outcome label (ok, quota_exceeded, access_denied,
// not_found, unavailable).
func WithObserver(fn func(endpoint, outcome string)) Option {
	return func(c *Client) { c.observe = fn }
}

// NewClient creates a client. quota must be shared by every caller of the
// same API key.
func NewClient(baseURL, apiKey string, quota *QuotaTracker, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		quota:   quota,
		retry:   DefaultRetryPolicy(),
		costs:   DefaultCosts,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quota exposes the tracker for status reporting.
func (c *Client) Quota() *QuotaTracker {
	return c.quota
}

// Get performs a quota-checked GET of endpoint and decodes the JSON body
// into out. cost is charged only when the provider answers 2xx.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values, cost int, out any) error {
	res, err := c.quota.Reserve(cost)
	if err != nil {
		c.record(endpoint, err)
		return err
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("key", c.apiKey)
	target := c.baseURL + "/" + strings.TrimLeft(endpoint, "/") + "?" + q.Encode()

	err = c.retry.Do(ctx, func(attempt int) error {
		c.log.Debug().
			Str("endpoint", endpoint).
			Int("attempt", attempt).
			Int("cost", cost).
			Msg("provider request")
		err := c.do(ctx, target, out)
		if err != nil {
			c.log.Warn().Err(err).Str("endpoint", endpoint).Int("attempt", attempt).Msg("provider request failed")
		}
		return err
	})
	if err != nil {
		res.Release()
		err = classify(err)
		c.record(endpoint, err)
		return err
	}

	res.Commit()
	c.record(endpoint, nil)
	return nil
}

func (c *Client) do(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Retry:      parseRetryAfter(resp.Header.Get("Retry-After"), c.now()),
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

func (c *Client) record(endpoint string, err error) {
	if c.observe != nil {
		c.observe(endpoint, Outcome(err))
	}
}

// Outcome labels an error from the client for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "unavailable"
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP date, resolved against now.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// count decodes a statistic the API sends as a quoted integer. Anything
// missing or malformed is 0.
type count int64

func (n *count) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		*n = 0
		return nil
	}
	*n = count(v)
	return nil
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelID    string `json:"channelId"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    count `json:"viewCount"`
			LikeCount    count `json:"likeCount"`
			CommentCount count `json:"commentCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// FetchVideoMetrics looks up statistics and duration for one video.
func (c *Client) FetchVideoMetrics(ctx context.Context, videoID string) (model.VideoMetrics, error) {
	params := url.Values{
		"id":   {videoID},
		"part": {"snippet,statistics,contentDetails"},
	}
	var resp videoListResponse
	if err := c.Get(ctx, "videos", params, c.costs.Video, &resp); err != nil {
		return model.VideoMetrics{}, fmt.Errorf("fetch video %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return model.VideoMetrics{}, fmt.Errorf("fetch video %s: %w", videoID, ErrNotFound)
	}

	item := resp.Items[0]
	m := model.VideoMetrics{
		VideoID:         item.ID,
		Title:           item.Snippet.Title,
		ChannelID:       item.Snippet.ChannelID,
		ChannelTitle:    item.Snippet.ChannelTitle,
		Description:     item.Snippet.Description,
		ViewCount:       int64(item.Statistics.ViewCount),
		LikeCount:       int64(item.Statistics.LikeCount),
		CommentCount:    int64(item.Statistics.CommentCount),
		DurationSeconds: ParseISODuration(item.ContentDetails.Duration),
	}
	if m.VideoID == "" {
		m.VideoID = videoID
	}
	if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		m.PublishedAt = t
	}
	return m, nil
}

type channelListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"snippet"`
		BrandingSettings struct {
			Channel struct {
				Description string `json:"description"`
			} `json:"channel"`
		} `json:"brandingSettings"`
	} `json:"items"`
}

// FetchChannel looks up a channel's title and descriptions.
func (c *Client) FetchChannel(ctx context.Context, channelID string) (model.ChannelInfo, error) {
	params := url.Values{
		"id":   {channelID},
		"part": {"snippet,brandingSettings"},
	}
	var resp channelListResponse
	if err := c.Get(ctx, "channels", params, c.costs.Channel, &resp); err != nil {
		return model.ChannelInfo{}, fmt.Errorf("fetch channel %s: %w", channelID, err)
	}
	if len(resp.Items) == 0 {
		return model.ChannelInfo{}, fmt.Errorf("fetch channel %s: %w", channelID, ErrNotFound)
	}
	item := resp.Items[0]
	return model.ChannelInfo{
		ChannelID:         item.ID,
		Title:             item.Snippet.Title,
		Description:       item.Snippet.Description,
		BannerDescription: item.BrandingSettings.Channel.Description,
	}, nil
}

type searchListResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// SearchRecentVideos returns the ids of a channel's newest uploads.
// Search is expensive: it is charged Costs.Search units.
func (c *Client) SearchRecentVideos(ctx context.Context, channelID string, max int) ([]string, error) {
	params := url.Values{
		"channelId":  {channelID},
		"part":       {"snippet"},
		"order":      {"date"},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(max)},
	}
	var resp searchListResponse
	if err := c.Get(ctx, "search", params, c.costs.Search, &resp); err != nil {
		return nil, fmt.Errorf("search channel %s: %w", channelID, err)
	}
	ids := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID.VideoID != "" {
			ids = append(ids, it.ID.VideoID)
		}
	}
	return ids, nil
}
