package main

import (
	"flag"
	"log"
	"time"

	"github.com/LJTian/CryptoNewsHub/internal/config"
	"github.com/LJTian/CryptoNewsHub/internal/crawler"
	"github.com/LJTian/CryptoNewsHub/internal/orchestrator"
	"github.com/LJTian/CryptoNewsHub/internal/storage"
)

// 一个仅执行一次采集任务的命令行入口：适合手动触发采集
func main() {
	parallel := flag.Bool("parallel", true, "各来源并发执行")
	flag.Parse()

	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	sources := crawler.ResolveSources(cfg.Sources)
	if len(sources) == 0 {
		log.Fatalf("no valid sources configured: %v", cfg.Sources)
	}
	for _, spec := range sources {
		if _, err := store.EnsureSource(spec.Code, spec.Name, spec.ListingURL); err != nil {
			log.Fatalf("ensure source %s failed: %v", spec.Code, err)
		}
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	crawlOpts := crawler.DefaultCrawlOptions()
	crawlOpts.MaxArticlesToCheck = cfg.MaxArticlesPerSource
	crawlOpts.MaxConsecutiveFailures = cfg.MaxConsecutiveFailures
	crawlOpts.MaxConsecutiveBeforeStart = cfg.MaxConsecutiveBeforeStart
	crawlOpts.RequestDelay = time.Duration(cfg.RequestDelaySeconds * float64(time.Second))
	crawlOpts.StartDate = cfg.StartDate
	crawlOpts.EndDate = cfg.EndDate
	crawlOpts.Keywords = cfg.Keywords

	orch := orchestrator.New(orchestrator.Options{
		Sources:     sources,
		Crawl:       crawlOpts,
		EnableDedup: cfg.EnableDedup,
		FetcherFor: func(spec crawler.SourceSpec) crawler.Fetcher {
			if spec.NeedsBrowser {
				return crawler.NewBrowserFetcher(cfg.BrowserScraperURL, timeout)
			}
			return crawler.NewHTTPFetcher(timeout, cfg.MaxRetries)
		},
	}, store)

	result, err := orch.Scrape(*parallel)
	if err != nil {
		log.Fatalf("scrape failed: %v", err)
	}

	log.Printf("scrape summary: checked=%d accepted=%d failed=%d duration=%.1fs",
		result.TotalChecked, result.Accepted, result.Failed, result.DurationSeconds)
	for code, r := range orch.GetSourceResults() {
		log.Printf("  %s: checked=%d accepted=%d failed=%d errors=%d",
			code, r.TotalChecked, r.Accepted, r.Failed, len(r.Errors))
	}
	if len(result.DedupRemoved) > 0 {
		log.Printf("  dedup removed: %v", result.DedupRemoved)
	}
}
