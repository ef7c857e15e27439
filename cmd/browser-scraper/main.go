package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

type fetchRequest struct {
	URL string `json:"url"`
}

type fetchResponse struct {
	OK     bool   `json:"ok"`
	HTML   string `json:"html,omitempty"`
	Status int    `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// 常见桌面 UA，按请求随机挑选，降低被风控识别为固定爬虫的概率
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

func main() {
	// 创建浏览器执行器与顶层上下文，整个进程复用一个 headless 实例
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// 预热浏览器，避免首个请求耗时过长
	if err := chromedp.Run(browserCtx); err != nil {
		log.Printf("warn: warmup chromedp failed: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/fetch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req fetchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, fetchResponse{OK: false, Error: "invalid json"})
			return
		}
		if req.URL == "" {
			writeJSON(w, http.StatusBadRequest, fetchResponse{OK: false, Error: "url is required"})
			return
		}

		// 每个请求用独立的超时上下文，复用同一个 browserCtx
		ctx, cancel := context.WithTimeout(browserCtx, 40*time.Second)
		defer cancel()

		html, status, err := renderPage(ctx, req.URL)
		if err != nil {
			log.Printf("fetch error: %v (url=%s)", err, req.URL)
			writeJSON(w, http.StatusOK, fetchResponse{OK: false, Status: status, Error: err.Error()})
			return
		}

		// 目标站的 404 透传给调用方：顺序 ID 爬取靠它识别空洞
		if status == http.StatusNotFound {
			writeJSON(w, http.StatusOK, fetchResponse{OK: false, Status: status, Error: "not found"})
			return
		}
		if status >= 400 {
			writeJSON(w, http.StatusOK, fetchResponse{OK: false, Status: status, Error: "upstream error"})
			return
		}

		writeJSON(w, http.StatusOK, fetchResponse{OK: true, HTML: html, Status: status})
	})

	addr := ":" + getEnv("PORT", "4000")
	log.Printf("browser-scraper listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("http server error: %v", err)
	}
}

// renderPage 渲染目标页并返回完整 HTML 与主文档的 HTTP 状态码
func renderPage(ctx context.Context, url string) (string, int, error) {
	status := 0

	// 监听主文档响应拿状态码；渲染类站点对 404 也会返回可渲染页面
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			if resp.Type == network.ResourceTypeDocument && status == 0 {
				status = int(resp.Response.Status)
			}
		}
	})

	// 类人停顿，避免请求节奏过于机械
	delay := time.Duration(800+rand.Intn(1700)) * time.Millisecond

	var html string
	err := chromedp.Run(ctx,
		network.Enable(),
		emulation.SetUserAgentOverride(userAgents[rand.Intn(len(userAgents))]),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(delay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", status, err
	}

	return html, status, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
