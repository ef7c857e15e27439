package crawler

import (
	"fmt"
	"log"
	"time"
)

// crawlState SourceCrawler 的状态机：先定位最新 ID，再逐个回溯，触发停止条件后结束
type crawlState int

const (
	stateSeekingLatestID crawlState = iota
	stateIterating
	stateStopped
)

// CrawlOptions 单个来源的爬取参数（由全局配置换算而来）
type CrawlOptions struct {
	MaxArticlesToCheck        int
	MaxConsecutiveFailures    int
	MaxConsecutiveBeforeStart int
	RequestDelay              time.Duration
	SeekTimeout               time.Duration
	StartDate                 time.Time
	EndDate                   time.Time
	Keywords                  []string
	// Seek 覆盖默认的列表页最新 ID 发现逻辑（测试注入用）；为 nil 时走列表页
	Seek func(spec SourceSpec) (int, error)
}

// DefaultCrawlOptions 经验值默认参数：连续 20 次空洞/失败视为翻过了可用历史，
// 连续 8 篇早于起始日期视为走出了目标时间窗
func DefaultCrawlOptions() CrawlOptions {
	return CrawlOptions{
		MaxArticlesToCheck:        200,
		MaxConsecutiveFailures:    20,
		MaxConsecutiveBeforeStart: 8,
		RequestDelay:              time.Second,
		SeekTimeout:               10 * time.Second,
	}
}

// SourceCrawler 单个站点的回溯爬取器。每个实例独占自己的
// Fetcher/Parser 与临时缓冲，来源之间互不共享可变状态
type SourceCrawler struct {
	spec    SourceSpec
	fetcher Fetcher
	parser  Parser
	opts    CrawlOptions

	// seek 可注入以便测试；默认走列表页发现最新 ID
	seek func() (int, error)

	state    crawlState
	articles []Article
	errs     []string

	checked                int
	accepted               int
	failed                 int
	consecutiveFailures    int
	consecutiveBeforeStart int
}

func NewSourceCrawler(spec SourceSpec, fetcher Fetcher, parser Parser, opts CrawlOptions) *SourceCrawler {
	sc := &SourceCrawler{
		spec:    spec,
		fetcher: fetcher,
		parser:  parser,
		opts:    opts,
		state:   stateSeekingLatestID,
	}
	if opts.Seek != nil {
		sc.seek = func() (int, error) { return opts.Seek(spec) }
	} else {
		sc.seek = func() (int, error) { return SeekLatestID(spec, opts.SeekTimeout) }
	}
	return sc
}

// Run 执行完整爬取，返回统计结果与接受的候选文章。
// 任何单站点内部错误都只体现在结果里，不向上抛出
func (sc *SourceCrawler) Run() (ScrapeResult, []Article) {
	start := time.Now()

	id := sc.bootstrap()
	if sc.state == stateIterating {
		sc.iterate(id)
	}

	sc.state = stateStopped
	result := ScrapeResult{
		TotalChecked:    sc.checked,
		Accepted:        sc.accepted,
		Failed:          sc.failed,
		DurationSeconds: time.Since(start).Seconds(),
		Errors:          CapErrors(sc.errs),
	}

	log.Printf("crawl %s done: checked=%d accepted=%d failed=%d",
		sc.spec.Code, sc.checked, sc.accepted, sc.failed)
	return result, sc.articles
}

// bootstrap 定位回溯起点：列表页发现失败时退回保底 ID，而不是放弃整个来源
func (sc *SourceCrawler) bootstrap() int {
	id, err := sc.seek()
	if err != nil {
		if sc.spec.FallbackID <= 0 {
			// 既找不到最新 ID 又没有保底值，该来源无法爬取
			sc.errs = append(sc.errs, fmt.Sprintf("%s: seek latest id: %v (no fallback)", sc.spec.Code, err))
			sc.state = stateStopped
			return 0
		}
		log.Printf("crawl %s: seek latest id failed (%v), fallback to %d",
			sc.spec.Code, err, sc.spec.FallbackID)
		id = sc.spec.FallbackID
	}

	sc.state = stateIterating
	return id
}

// iterate 从起始 ID 逐个递减抓取，按优先级检查停止条件
func (sc *SourceCrawler) iterate(id int) {
	for {
		switch {
		case sc.checked >= sc.opts.MaxArticlesToCheck:
			return // 检查预算用尽（限制的是检查数，不是入库数）
		case sc.consecutiveFailures >= sc.opts.MaxConsecutiveFailures:
			return // 连续空洞/失败，大概率翻过了可用历史
		case sc.consecutiveBeforeStart >= sc.opts.MaxConsecutiveBeforeStart:
			return // 连续早于时间窗起点，ID 与时间大致同序，继续回溯无意义
		case id < 1:
			return
		}

		if sc.checked > 0 && sc.opts.RequestDelay > 0 {
			// 请求间隔是对站点的限速礼貌，与 Fetcher 内部的重试退避无关
			time.Sleep(sc.opts.RequestDelay)
		}

		sc.step(id)
		id--
		sc.checked++
	}
}

// step 处理单个文章 ID：抓取、解析、日期与关键词过滤
func (sc *SourceCrawler) step(id int) {
	url := sc.spec.ArticleURL(id)
	out := sc.fetcher.Fetch(url)

	switch out.Status {
	case FetchNotFound:
		// ID 空洞是顺序爬取的正常现象，只作为翻页停止信号累计
		sc.consecutiveFailures++
		return
	case FetchTransient, FetchFatal:
		sc.consecutiveFailures++
		sc.failed++
		sc.errs = append(sc.errs, fmt.Sprintf("%s: %v", sc.spec.Code, out.Err))
		return
	case FetchOK:
		// 抓取成功还不算打破连续失败，要能解析出文章才算
	}

	article, err := sc.parser.Parse(out.Body, url, sc.spec.Code)
	if err != nil {
		// 解析失败与瞬时抓取失败同等对待：计入连续失败，记录后继续
		sc.consecutiveFailures++
		sc.failed++
		sc.errs = append(sc.errs, fmt.Sprintf("%s: %v", sc.spec.Code, err))
		return
	}
	sc.consecutiveFailures = 0

	if article.PublishedAt != nil {
		t := *article.PublishedAt
		if !sc.opts.StartDate.IsZero() && t.Before(sc.opts.StartDate) {
			sc.consecutiveBeforeStart++
			return
		}
		if !sc.opts.EndDate.IsZero() && t.After(sc.opts.EndDate) {
			// 晚于窗口终点只跳过，不影响 before-start 计数
			return
		}
		sc.consecutiveBeforeStart = 0
	}

	if len(sc.opts.Keywords) > 0 {
		matched := MatchedKeywords(article, sc.opts.Keywords)
		if len(matched) == 0 {
			return
		}
		article.MatchedKeywords = matched
	}

	sc.articles = append(sc.articles, article)
	sc.accepted++
}
