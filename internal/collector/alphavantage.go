package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"FxSentinel/internal/model"

	"github.com/pkg/errors"
)

const defaultAlphaVantageURL = "https://www.alphavantage.co/query"

// AlphaVantageFetcher implements Fetcher using the Alpha Vantage FX_INTRADAY API.
type AlphaVantageFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewAlphaVantageFetcher creates a fetcher with optional proxy support.
// An empty baseURL selects the public Alpha Vantage endpoint.
func NewAlphaVantageFetcher(baseURL, apiKey, proxyURL string) *AlphaVantageFetcher {
	if baseURL == "" {
		baseURL = defaultAlphaVantageURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &AlphaVantageFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

// avBar is one entry of the "Time Series FX (...)" object.
type avBar struct {
	Open  string `json:"1. open"`
	High  string `json:"2. high"`
	Low   string `json:"3. low"`
	Close string `json:"4. close"`
}

// FetchIntraday fetches FX_INTRADAY bars for a six-letter pair like "EURUSD"
// and returns them sorted ascending by timestamp.
func (f *AlphaVantageFetcher) FetchIntraday(ctx context.Context, pair, interval string) ([]model.Bar, error) {
	if len(pair) != 6 {
		return nil, errors.Errorf("malformed pair %q", pair)
	}

	q := url.Values{}
	q.Set("function", "FX_INTRADAY")
	q.Set("from_symbol", pair[:3])
	q.Set("to_symbol", pair[3:])
	q.Set("interval", interval)
	q.Set("apikey", f.APIKey)
	q.Set("outputsize", "compact")
	q.Set("datatype", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", pair)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("alphavantage: status %d, body: %s", resp.StatusCode, string(body))
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}

	key := fmt.Sprintf("Time Series FX (%s)", interval)
	raw, ok := payload[key]
	if !ok {
		// Rate-limit notes and error messages arrive as 200s without the series key.
		return nil, errors.Errorf("alphavantage: no data for %s %s: %s", pair, interval, string(body))
	}

	var series map[string]avBar
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, errors.Wrap(err, "decode series")
	}
	if len(series) == 0 {
		return nil, errors.Errorf("alphavantage: empty series for %s", pair)
	}

	bars := make([]model.Bar, 0, len(series))
	for ts, b := range series {
		t, err := time.Parse("2006-01-02 15:04:05", ts)
		if err != nil {
			return nil, errors.Wrapf(err, "parse timestamp %q", ts)
		}
		bar, err := parseBar(t, b)
		if err != nil {
			return nil, errors.Wrapf(err, "parse bar at %s", ts)
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func parseBar(t time.Time, b avBar) (model.Bar, error) {
	o, err := strconv.ParseFloat(b.Open, 64)
	if err != nil {
		return model.Bar{}, err
	}
	h, err := strconv.ParseFloat(b.High, 64)
	if err != nil {
		return model.Bar{}, err
	}
	l, err := strconv.ParseFloat(b.Low, 64)
	if err != nil {
		return model.Bar{}, err
	}
	c, err := strconv.ParseFloat(b.Close, 64)
	if err != nil {
		return model.Bar{}, err
	}
	return model.Bar{Time: t, Open: o, High: h, Low: l, Close: c}, nil
}
