package crawler

import (
	"fmt"
	"time"
)

// Article 各站点解析后的统一文章结构
type Article struct {
	URL   string
	Title string
	// PublishedAt 为站点自报的发布时间，可能缺失（nil）；
	// 站点也可能回填旧时间，不保证与 ScrapedAt 单调
	PublishedAt *time.Time
	Author      string
	BodyText    string
	ScrapedAt   time.Time
	Source      string
	// MatchedKeywords 记录命中的关键词（按配置顺序）；未配置关键词时为空
	MatchedKeywords []string
}

// ScrapeResult 一次爬取的统计结果（按来源一份，全局汇总一份）
type ScrapeResult struct {
	TotalChecked    int
	Accepted        int
	Failed          int
	DurationSeconds float64
	Errors          []string
	// DedupRemoved 按匹配方式统计的去重剔除数，仅在汇总结果中填充
	DedupRemoved map[string]int
}

// maxErrorSample 错误列表只保留前若干条做诊断样本，长跑时不无限累积
const maxErrorSample = 20

// CapErrors 截断错误样本，超出部分折叠为一条计数后缀
func CapErrors(errs []string) []string {
	if len(errs) <= maxErrorSample {
		return errs
	}
	capped := make([]string, maxErrorSample, maxErrorSample+1)
	copy(capped, errs[:maxErrorSample])
	capped = append(capped, fmt.Sprintf("...and %d more", len(errs)-maxErrorSample))
	return capped
}
