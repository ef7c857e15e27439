package orchestrator

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/LJTian/CryptoNewsHub/internal/crawler"
	"github.com/LJTian/CryptoNewsHub/internal/dedup"
)

// ArticleStore 持久化协作方。Save 返回 false 表示按存储自身的键已存在
// （不算去重剔除，但不计入最终接受数）；返回 error 表示存储不可写，
// 对整轮爬取是致命的
type ArticleStore interface {
	Exists(url string) bool
	Save(a crawler.Article) (bool, error)
	ListRecent(days int) ([]crawler.Article, error)
}

// warmDays 预热去重缓存时回看的天数
const warmDays = 7

// Options 编排器参数
type Options struct {
	Sources     []crawler.SourceSpec
	Crawl       crawler.CrawlOptions
	EnableDedup bool
	// FetcherFor 为每个来源构造独立的 Fetcher（独立连接池，互不干扰）；
	// 为 nil 时用默认的普通 HTTP 实现
	FetcherFor func(spec crawler.SourceSpec) crawler.Fetcher
	// Parser 页面解析器；为 nil 时用内置的选择器表实现
	Parser crawler.Parser
}

// Orchestrator 多来源爬取编排器：并发跑各来源的 SourceCrawler，
// 合并候选流过去重，幸存者入库，汇总统计。
// 去重缓存与存储句柄只在合并/入库的单线程阶段使用，并发任务不触碰
type Orchestrator struct {
	opts  Options
	store ArticleStore

	// detector 预热成功时使用；预热失败退回会话内逐对去重
	detector *dedup.CacheDetector

	// runMu 串行化整轮爬取：定时任务与手动触发可能同时到来
	runMu sync.Mutex

	// mu 只保护统计快照；整轮爬取可能长达数分钟，
	// 统计读取不应被在途的爬取阻塞
	mu             sync.Mutex
	sourceResults  map[string]crawler.ScrapeResult
	sourceArticles map[string][]crawler.Article
}

// New 构造编排器并预热去重缓存。预热失败不阻断构造，
// 只是降级到无缓存的逐对去重
func New(opts Options, store ArticleStore) *Orchestrator {
	if opts.FetcherFor == nil {
		opts.FetcherFor = func(crawler.SourceSpec) crawler.Fetcher {
			return crawler.NewHTTPFetcher(10*time.Second, 3)
		}
	}
	if opts.Parser == nil {
		opts.Parser = crawler.NewHTMLParser()
	}

	o := &Orchestrator{
		opts:           opts,
		store:          store,
		sourceResults:  make(map[string]crawler.ScrapeResult),
		sourceArticles: make(map[string][]crawler.Article),
	}

	if opts.EnableDedup {
		recent, err := store.ListRecent(warmDays)
		if err != nil {
			log.Printf("warn: warm dedup cache failed: %v, fallback to pairwise dedup", err)
		} else {
			cache := dedup.NewCache()
			cache.Warm(recent)
			o.detector = dedup.NewCacheDetector(cache)
			log.Printf("dedup cache warmed: %d urls from last %d days", cache.Size(), warmDays)
		}
	}

	return o
}

// Scrape 执行一轮完整爬取。parallel 为 true 时各来源各占一个 goroutine，
// 否则顺序执行；两种方式下合并去重后的最终结果对相同输入是确定的
func (o *Orchestrator) Scrape(parallel bool) (crawler.ScrapeResult, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	start := time.Now()

	results := make([]crawler.ScrapeResult, len(o.opts.Sources))
	articles := make([][]crawler.Article, len(o.opts.Sources))

	if parallel {
		var wg sync.WaitGroup
		for i, spec := range o.opts.Sources {
			wg.Add(1)
			go func(i int, spec crawler.SourceSpec) {
				defer wg.Done()
				results[i], articles[i] = o.runSource(spec)
			}(i, spec)
		}
		wg.Wait()
	} else {
		for i, spec := range o.opts.Sources {
			results[i], articles[i] = o.runSource(spec)
		}
	}

	// 汇总阶段单线程：按配置顺序拼接各来源候选，顺序确定。
	// 快照锁只在这段短暂持有
	var candidates []crawler.Article
	aggregate := crawler.ScrapeResult{}
	var allErrs []string
	o.mu.Lock()
	for i, spec := range o.opts.Sources {
		o.sourceResults[spec.Code] = results[i]
		o.sourceArticles[spec.Code] = articles[i]

		aggregate.TotalChecked += results[i].TotalChecked
		aggregate.Failed += results[i].Failed
		allErrs = append(allErrs, results[i].Errors...)
		candidates = append(candidates, articles[i]...)
	}
	o.mu.Unlock()

	survivors := candidates
	if o.opts.EnableDedup {
		var removed map[string]int
		survivors, removed = o.deduplicator().Filter(candidates)
		aggregate.DedupRemoved = removed
		if n := len(candidates) - len(survivors); n > 0 {
			log.Printf("dedup removed %d of %d candidates: %v", n, len(candidates), removed)
		}
	}

	// 入库；Save 返回 false 表示存储里已有同键记录，不计入接受数
	persisted := 0
	for _, a := range survivors {
		created, err := o.store.Save(a)
		if err != nil {
			aggregate.Accepted = persisted
			aggregate.Errors = crawler.CapErrors(allErrs)
			aggregate.DurationSeconds = time.Since(start).Seconds()
			return aggregate, fmt.Errorf("save article %s: %w", a.URL, err)
		}
		if created {
			persisted++
		}
	}

	aggregate.Accepted = persisted
	aggregate.Errors = crawler.CapErrors(allErrs)
	aggregate.DurationSeconds = time.Since(start).Seconds()

	log.Printf("scrape done: checked=%d accepted=%d failed=%d in %.1fs",
		aggregate.TotalChecked, aggregate.Accepted, aggregate.Failed, aggregate.DurationSeconds)
	return aggregate, nil
}

// runSource 跑单个来源。每个来源独占自己的 Fetcher/Parser 与缓冲，
// 意外 panic 也只折损本来源，不拖垮整轮
func (o *Orchestrator) runSource(spec crawler.SourceSpec) (result crawler.ScrapeResult, articles []crawler.Article) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("crawl %s panicked: %v", spec.Code, r)
			result = crawler.ScrapeResult{
				Errors: []string{fmt.Sprintf("%s: panic: %v", spec.Code, r)},
			}
			articles = nil
		}
	}()

	sc := crawler.NewSourceCrawler(spec, o.opts.FetcherFor(spec), o.opts.Parser, o.opts.Crawl)
	result, articles = sc.Run()
	return result, articles
}

// deduplicator 选择去重策略：缓存预热成功用分层判重器，否则退回逐对比较
func (o *Orchestrator) deduplicator() dedup.Deduplicator {
	if o.detector != nil {
		return o.detector
	}
	return dedup.NewPairwiseDeduplicator()
}

// GetSourceResults 返回各来源最近一轮的统计，便于定位表现不佳的站点
func (o *Orchestrator) GetSourceResults() map[string]crawler.ScrapeResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[string]crawler.ScrapeResult, len(o.sourceResults))
	for k, v := range o.sourceResults {
		out[k] = v
	}
	return out
}

// GetSourceArticles 返回各来源最近一轮接受的候选（去重前）
func (o *Orchestrator) GetSourceArticles() map[string][]crawler.Article {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[string][]crawler.Article, len(o.sourceArticles))
	for k, v := range o.sourceArticles {
		out[k] = v
	}
	return out
}
