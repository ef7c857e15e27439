package crawler

import (
	"testing"
	"time"
)

func datedArticle(t time.Time) Article {
	return Article{URL: "https://example.com/1", Title: "t", PublishedAt: &t}
}

func TestWithinDateRange(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	in := datedArticle(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC))
	if !WithinDateRange(in, start, end) {
		t.Fatalf("article inside range should pass")
	}

	before := datedArticle(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	if WithinDateRange(before, start, end) {
		t.Fatalf("article before start should fail")
	}

	after := datedArticle(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if WithinDateRange(after, start, end) {
		t.Fatalf("article after end should fail")
	}

	// 发布时间缺失时无法判断，放行
	undated := Article{URL: "https://example.com/2", Title: "t"}
	if !WithinDateRange(undated, start, end) {
		t.Fatalf("undated article should pass")
	}

	// 零值边界表示该方向不限
	if !WithinDateRange(before, time.Time{}, end) {
		t.Fatalf("zero start should mean unbounded")
	}
	if !WithinDateRange(after, start, time.Time{}) {
		t.Fatalf("zero end should mean unbounded")
	}
}

func TestMatchedKeywordsCaseInsensitiveAndOrdered(t *testing.T) {
	a := Article{
		Title:    "Exchange X Hacked",
		BodyText: "攻击者窃取了大量 BTC，DeFi 协议也受波及。",
	}

	got := MatchedKeywords(a, []string{"defi", "hacked", "eth"})
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %v", got)
	}
	// 命中结果保持配置顺序，而不是出现顺序
	if got[0] != "defi" || got[1] != "hacked" {
		t.Fatalf("matches out of configured order: %v", got)
	}
}

func TestMatchedKeywordsEmptyConfigMeansNoFilter(t *testing.T) {
	a := Article{Title: "anything"}
	if got := MatchedKeywords(a, nil); got != nil {
		t.Fatalf("no keywords configured should return nil, got %v", got)
	}
}

func TestMatchedKeywordsSearchesTitleAndBody(t *testing.T) {
	a := Article{Title: "比特币突破新高", BodyText: "市场情绪高涨"}
	if got := MatchedKeywords(a, []string{"比特币"}); len(got) != 1 {
		t.Fatalf("keyword in title should match: %v", got)
	}
	if got := MatchedKeywords(a, []string{"情绪"}); len(got) != 1 {
		t.Fatalf("keyword in body should match: %v", got)
	}
	if got := MatchedKeywords(a, []string{"以太坊"}); len(got) != 0 {
		t.Fatalf("absent keyword should not match: %v", got)
	}
}
