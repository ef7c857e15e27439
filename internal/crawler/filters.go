package crawler

import (
	"strings"
	"time"
)

// WithinDateRange 判断文章发布时间是否落在 [start, end] 内。
// start/end 零值表示对应方向不限；发布时间缺失视为在范围内（无法判断就放行）
func WithinDateRange(a Article, start, end time.Time) bool {
	if a.PublishedAt == nil {
		return true
	}
	t := *a.PublishedAt
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}

// MatchedKeywords 返回在标题+正文中命中的关键词（大小写不敏感的子串匹配），
// 保持配置顺序。关键词列表为空时返回 nil，表示不做关键词过滤
func MatchedKeywords(a Article, keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}

	haystack := strings.ToLower(a.Title + " " + a.BodyText)
	var matched []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched
}
