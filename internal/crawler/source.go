package crawler

import (
	"fmt"
	"log"
	"regexp"
)

// SourceSpec 描述一个新闻源：文章 URL 的拼接方式、列表页、
// 最新 ID 的提取正则，以及列表页不可用时的保底起始 ID。
// 这些站点没有分页列表 API，只能按数字 ID 从大到小回溯
type SourceSpec struct {
	Code       string
	Name       string
	ListingURL string
	// ArticleURLFormat 用 %d 占位文章 ID，例如 ".../blockchain/%d.html"
	ArticleURLFormat string
	// IDPattern 从列表页链接中提取文章 ID，第一个分组为数字 ID
	IDPattern *regexp.Regexp
	// FallbackID 列表页解析失败时的近似起始 ID（刻意取偏新的估计值）
	FallbackID int
	// NeedsBrowser 为 true 的站点有反爬，必须走 browser-scraper 边车
	NeedsBrowser bool
}

func (s SourceSpec) ArticleURL(id int) string {
	return fmt.Sprintf(s.ArticleURLFormat, id)
}

// knownSources 固定的站点注册表；新增站点在这里登记
var knownSources = map[string]SourceSpec{
	"jinse": {
		Code:             "jinse",
		Name:             "金色财经",
		ListingURL:       "https://www.jinse.cn/blockchain",
		ArticleURLFormat: "https://www.jinse.cn/blockchain/%d.html",
		IDPattern:        regexp.MustCompile(`/blockchain/(\d+)\.html`),
		FallbackID:       3720000,
	},
	"odaily": {
		Code:             "odaily",
		Name:             "星球日报",
		ListingURL:       "https://www.odaily.news/newsflash",
		ArticleURLFormat: "https://www.odaily.news/post/%d",
		IDPattern:        regexp.MustCompile(`/post/(\d+)`),
		FallbackID:       5180000,
	},
	"blockbeats": {
		Code:             "blockbeats",
		Name:             "律动 BlockBeats",
		ListingURL:       "https://www.theblockbeats.info/newsflash",
		ArticleURLFormat: "https://www.theblockbeats.info/news/%d",
		IDPattern:        regexp.MustCompile(`/news/(\d+)`),
		FallbackID:       52000,
		NeedsBrowser:     true,
	},
}

// KnownSource 按 code 查找站点定义
func KnownSource(code string) (SourceSpec, bool) {
	s, ok := knownSources[code]
	return s, ok
}

// AllSources 返回全部已注册站点（遍历展示用）
func AllSources() []SourceSpec {
	out := make([]SourceSpec, 0, len(knownSources))
	for _, s := range knownSources {
		out = append(out, s)
	}
	return out
}

// ResolveSources 过滤配置中的站点列表：未注册的丢弃并告警，不视为错误
func ResolveSources(codes []string) []SourceSpec {
	out := make([]SourceSpec, 0, len(codes))
	for _, code := range codes {
		s, ok := knownSources[code]
		if !ok {
			log.Printf("warn: unknown source %q, skipped", code)
			continue
		}
		out = append(out, s)
	}
	return out
}
