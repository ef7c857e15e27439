package crawler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FetchStatus 区分"正常获取 / 文章不存在 / 可重试失败 / 不可恢复失败"，
// 其中 404 是顺序 ID 爬取的正常空洞信号，不算错误
type FetchStatus int

const (
	FetchOK FetchStatus = iota
	FetchNotFound
	FetchTransient
	FetchFatal
)

// FetchOutcome 一次抓取的结果；调用方按 Status 穷举分支
type FetchOutcome struct {
	Status     FetchStatus
	Body       string
	StatusCode int
	Err        error
}

// Fetcher 抽象单页抓取。实现可以是普通 HTTP，也可以是无头浏览器，
// 核心逻辑只依赖这个契约
type Fetcher interface {
	Fetch(url string) FetchOutcome
}

// ErrNotFound 供需要以 error 形式向上传递 404 的场景使用
var ErrNotFound = errors.New("article not found")

const (
	fetchMaxResponseBytes = 4 << 20 // 4MB
	fetchBaseBackoff      = 500 * time.Millisecond
)

// HTTPFetcher 普通 HTTP 抓取实现：带超时，瞬时失败按退避重试，4xx 不重试
type HTTPFetcher struct {
	client     *http.Client
	maxRetries int
	userAgent  string
}

func NewHTTPFetcher(timeout time.Duration, maxRetries int) *HTTPFetcher {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &HTTPFetcher{
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		userAgent:  "CryptoNewsHubBot/1.0",
	}
}

func (f *HTTPFetcher) Fetch(url string) FetchOutcome {
	var lastErr error
	backoff := fetchBaseBackoff

	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		out, retryable := f.fetchOnce(url)
		if !retryable {
			return out
		}
		lastErr = out.Err
	}

	return FetchOutcome{
		Status: FetchTransient,
		Err:    fmt.Errorf("fetch %s: %d attempts failed: %w", url, f.maxRetries, lastErr),
	}
}

// fetchOnce 单次请求；第二个返回值表示该失败是否值得重试
func (f *HTTPFetcher) fetchOnce(url string) (FetchOutcome, bool) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return FetchOutcome{Status: FetchFatal, Err: err}, false
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		// 超时、连接被重置等网络层错误，重试
		return FetchOutcome{Status: FetchTransient, Err: err}, true
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return FetchOutcome{Status: FetchNotFound, StatusCode: resp.StatusCode, Err: ErrNotFound}, false
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// 其它 4xx 属于语义错误，交给上层处理，不做重试
		return FetchOutcome{
			Status:     FetchTransient,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("fetch %s: status %d", url, resp.StatusCode),
		}, false
	case resp.StatusCode >= 500:
		return FetchOutcome{
			Status:     FetchTransient,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("fetch %s: status %d", url, resp.StatusCode),
		}, true
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchMaxResponseBytes))
	if err != nil {
		return FetchOutcome{Status: FetchTransient, Err: fmt.Errorf("fetch %s: read body: %w", url, err)}, true
	}

	return FetchOutcome{Status: FetchOK, Body: string(body), StatusCode: resp.StatusCode}, false
}
