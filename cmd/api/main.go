package main

import (
	"crypto/subtle"
	"log"
	"net/http"
	"time"

	"github.com/LJTian/CryptoNewsHub/internal/api"
	"github.com/LJTian/CryptoNewsHub/internal/config"
	"github.com/LJTian/CryptoNewsHub/internal/crawler"
	"github.com/LJTian/CryptoNewsHub/internal/orchestrator"
	"github.com/LJTian/CryptoNewsHub/internal/scheduler"
	"github.com/LJTian/CryptoNewsHub/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	// 确保各来源在库中登记
	sources := crawler.ResolveSources(cfg.Sources)
	if len(sources) == 0 {
		log.Fatalf("no valid sources configured: %v", cfg.Sources)
	}
	for _, spec := range sources {
		if _, err := store.EnsureSource(spec.Code, spec.Name, spec.ListingURL); err != nil {
			log.Fatalf("ensure source %s failed: %v", spec.Code, err)
		}
	}

	orch := orchestrator.New(buildOptions(cfg, sources), store)
	apiServer := api.NewServer(store, orch.Scrape, orch.GetSourceResults)

	// 定时采集；结果与手动触发一样登记到 /stats
	s, err := scheduler.New(cfg.CronSpec, func() {
		result, err := orch.Scrape(true)
		if err != nil {
			log.Printf("scheduled scrape error: %v", err)
		}
		apiServer.RecordResult(result)
	})
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()

	// API
	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}

// buildOptions 把全局配置换算为编排器参数；反爬站点走 browser-scraper 边车
func buildOptions(cfg *config.Config, sources []crawler.SourceSpec) orchestrator.Options {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	crawlOpts := crawler.DefaultCrawlOptions()
	crawlOpts.MaxArticlesToCheck = cfg.MaxArticlesPerSource
	crawlOpts.MaxConsecutiveFailures = cfg.MaxConsecutiveFailures
	crawlOpts.MaxConsecutiveBeforeStart = cfg.MaxConsecutiveBeforeStart
	crawlOpts.RequestDelay = time.Duration(cfg.RequestDelaySeconds * float64(time.Second))
	crawlOpts.StartDate = cfg.StartDate
	crawlOpts.EndDate = cfg.EndDate
	crawlOpts.Keywords = cfg.Keywords

	return orchestrator.Options{
		Sources:     sources,
		Crawl:       crawlOpts,
		EnableDedup: cfg.EnableDedup,
		FetcherFor: func(spec crawler.SourceSpec) crawler.Fetcher {
			if spec.NeedsBrowser {
				return crawler.NewBrowserFetcher(cfg.BrowserScraperURL, timeout)
			}
			return crawler.NewHTTPFetcher(timeout, cfg.MaxRetries)
		},
	}
}

// basicAuthMiddleware 为整个站点增加一个简单的 Basic Auth 访问密码。
// 仅当配置了 APP_BASIC_USER / APP_BASIC_PASS 时启用。
// /health 不做认证，便于健康检查。
func basicAuthMiddleware(user, pass string) gin.HandlerFunc {
	const realm = "Restricted"
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
