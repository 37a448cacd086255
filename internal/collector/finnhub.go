package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"GapSentinel/internal/model"
)

// maxErrBody bounds how much of an error body is kept for logs.
const maxErrBody = 200

// FinnhubSource implements Source using the Finnhub /quote endpoint.
type FinnhubSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewFinnhubSource creates a source with optional proxy support.
func NewFinnhubSource(baseURL, apiKey, proxyURL string, timeout time.Duration) *FinnhubSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FinnhubSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *FinnhubSource) Name() string { return "finnhub" }

// Quote requests {c, pc, v} for symbol. A response with c == 0 or pc == 0
// yields ErrNoData.
func (f *FinnhubSource) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	endpoint := fmt.Sprintf("%s/quote?symbol=%s", f.BaseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.Quote{}, err
	}
	req.Header.Set("X-Finnhub-Token", f.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("fetch quote: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Quote{}, fmt.Errorf("read quote body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.Quote{}, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), maxErrBody)}
	}
	if !gjson.ValidBytes(body) {
		return model.Quote{}, fmt.Errorf("decode quote: invalid json")
	}

	res := gjson.ParseBytes(body)
	q := model.Quote{
		Symbol:   symbol,
		Current:  res.Get("c").Float(),
		Previous: res.Get("pc").Float(),
		Volume:   res.Get("v").Int(),
	}
	if !q.Valid() {
		return q, ErrNoData
	}
	return q, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
