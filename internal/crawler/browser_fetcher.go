package crawler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BrowserFetcher 通过 browser-scraper 边车服务抓取反爬站点。
// 边车用无头浏览器渲染页面后返回 HTML，本实现只是它的 HTTP 客户端，
// 与 HTTPFetcher 实现同一个 Fetcher 契约，可直接替换
type BrowserFetcher struct {
	endpoint string
	client   *http.Client
}

func NewBrowserFetcher(endpoint string, timeout time.Duration) *BrowserFetcher {
	return &BrowserFetcher{
		endpoint: endpoint,
		// 渲染比裸 HTTP 慢得多，给边车留出余量
		client: &http.Client{Timeout: timeout + 30*time.Second},
	}
}

type browserFetchRequest struct {
	URL string `json:"url"`
}

type browserFetchResponse struct {
	OK     bool   `json:"ok"`
	HTML   string `json:"html,omitempty"`
	Status int    `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (f *BrowserFetcher) Fetch(url string) FetchOutcome {
	payload, err := json.Marshal(browserFetchRequest{URL: url})
	if err != nil {
		return FetchOutcome{Status: FetchFatal, Err: err}
	}

	resp, err := f.client.Post(f.endpoint+"/fetch", "application/json", bytes.NewReader(payload))
	if err != nil {
		return FetchOutcome{Status: FetchTransient, Err: fmt.Errorf("browser-scraper: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FetchOutcome{
			Status: FetchTransient,
			Err:    fmt.Errorf("browser-scraper: status %d", resp.StatusCode),
		}
	}

	var out browserFetchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, fetchMaxResponseBytes)).Decode(&out); err != nil {
		return FetchOutcome{Status: FetchTransient, Err: fmt.Errorf("browser-scraper: decode: %w", err)}
	}

	if !out.OK {
		// 边车把目标站的 404 透传回来，保持与 HTTPFetcher 一致的空洞信号
		if out.Status == http.StatusNotFound {
			return FetchOutcome{Status: FetchNotFound, StatusCode: out.Status, Err: ErrNotFound}
		}
		return FetchOutcome{
			Status:     FetchTransient,
			StatusCode: out.Status,
			Err:        fmt.Errorf("browser-scraper: %s", out.Error),
		}
	}

	return FetchOutcome{Status: FetchOK, Body: out.HTML, StatusCode: http.StatusOK}
}
