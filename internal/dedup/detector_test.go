package dedup

import (
	"testing"
	"time"

	"github.com/LJTian/CryptoNewsHub/internal/crawler"
)

func day(d int) *time.Time {
	t := time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestURLMatchWinsOverTitleMatch(t *testing.T) {
	// URL 与标题同时命中时，必须报置信度最高的 url_match
	d := NewCacheDetector(NewCache())
	seed := crawler.Article{URL: "https://a.example/1", Title: "Hack at Exchange X", BodyText: "body"}
	if _, dup := d.Check(seed); dup {
		t.Fatalf("first article should not be a duplicate")
	}

	m, dup := d.Check(crawler.Article{URL: "https://a.example/1", Title: "Hack at Exchange X", BodyText: "body"})
	if !dup {
		t.Fatalf("identical article should be flagged")
	}
	if m.Method != MethodURL || m.Confidence != 100 {
		t.Fatalf("expected url_match/100, got %s/%d", m.Method, m.Confidence)
	}
}

func TestTitleMatchNormalizesCaseAndSpace(t *testing.T) {
	d := NewCacheDetector(NewCache())
	_, _ = d.Check(crawler.Article{URL: "https://a.example/1", Title: "Hack at Exchange X", BodyText: "b1"})

	m, dup := d.Check(crawler.Article{URL: "https://a.example/2", Title: "  hack at exchange x  ", BodyText: "b2"})
	if !dup || m.Method != MethodTitle {
		t.Fatalf("expected title_match, got dup=%v method=%s", dup, m.Method)
	}
	if m.Confidence != 95 {
		t.Fatalf("title_match confidence should be 95, got %d", m.Confidence)
	}
}

func TestContentHashAbsorbsFormattingDifferences(t *testing.T) {
	d := NewCacheDetector(NewCache())
	_, _ = d.Check(crawler.Article{
		URL:      "https://a.example/1",
		Title:    "标题甲",
		BodyText: "Exchange X lost 5000 BTC today.",
	})

	// 同一正文，仅标点/空白/大小写不同
	m, dup := d.Check(crawler.Article{
		URL:      "https://a.example/2",
		Title:    "标题乙",
		BodyText: "exchange  x lost 5000 btc, today!!",
	})
	if !dup || m.Method != MethodContentHash {
		t.Fatalf("expected content_hash_match, got dup=%v method=%s", dup, m.Method)
	}
	if m.Confidence != 90 {
		t.Fatalf("content_hash_match confidence should be 90, got %d", m.Confidence)
	}
}

func TestContentHashFallsBackToTitleWhenBodyEmpty(t *testing.T) {
	d := NewCacheDetector(NewCache())
	_, _ = d.Check(crawler.Article{URL: "https://a.example/1", Title: "独家快讯", BodyText: ""})

	m, dup := d.Check(crawler.Article{URL: "https://a.example/2", Title: "标题不同但正文为空", BodyText: "独家快讯"})
	if !dup || m.Method != MethodContentHash {
		t.Fatalf("empty body should hash the title instead, got dup=%v method=%s", dup, m.Method)
	}
}

func TestFuzzyTitleJaccardStrictBoundary(t *testing.T) {
	// Jaccard 恰好 0.80（4/5）不算重复，必须严格大于 0.8
	d := NewCacheDetector(NewCache())
	_, _ = d.Check(crawler.Article{URL: "https://a.example/1", Title: "alpha beta gamma delta epsilon", BodyText: "b1"})

	if m, dup := d.Check(crawler.Article{URL: "https://a.example/2", Title: "alpha beta gamma delta", BodyText: "b2"}); dup {
		t.Fatalf("jaccard exactly 0.80 must not be flagged, got %s", m.Method)
	}

	// 5/6 ≈ 0.83 > 0.8，命中 similar_title
	d2 := NewCacheDetector(NewCache())
	_, _ = d2.Check(crawler.Article{URL: "https://a.example/1", Title: "alpha beta gamma delta epsilon", BodyText: "b1"})

	m, dup := d2.Check(crawler.Article{URL: "https://a.example/3", Title: "alpha beta gamma delta epsilon zeta", BodyText: "b3"})
	if !dup || m.Method != MethodSimilar {
		t.Fatalf("jaccard above 0.8 should flag similar_title, got dup=%v method=%s", dup, m.Method)
	}
	if m.Confidence != 80 {
		t.Fatalf("similar_title confidence should be 80, got %d", m.Confidence)
	}
}

func TestWarmedCacheFlagsPreviouslyStoredArticles(t *testing.T) {
	cache := NewCache()
	cache.Warm([]crawler.Article{
		{URL: "https://a.example/old", Title: "昨日旧闻", BodyText: "旧正文", PublishedAt: day(1)},
	})
	d := NewCacheDetector(cache)

	m, dup := d.Check(crawler.Article{URL: "https://a.example/old", Title: "换了标题", BodyText: "换了正文"})
	if !dup || m.Method != MethodURL {
		t.Fatalf("warmed url should be flagged, got dup=%v method=%s", dup, m.Method)
	}
}

// 综合场景：两个来源三篇文章，url2 与 url1 同标题，url3 与 url1 同内容哈希，
// 最终只有 url1 幸存
func TestFilterCombinedScenario(t *testing.T) {
	candidates := []crawler.Article{
		{URL: "https://a.example/url1", Title: "Hack at Exchange X", BodyText: "Exchange X lost 5000 BTC today.", PublishedAt: day(1)},
		{URL: "https://a.example/url2", Title: "Hack at Exchange X", BodyText: "totally different words here", PublishedAt: day(1)},
		{URL: "https://b.example/url3", Title: "Exchange X suffers hack", BodyText: "exchange x lost 5000 btc today", PublishedAt: day(1)},
	}

	d := NewCacheDetector(NewCache())
	survivors, removed := d.Filter(candidates)

	if len(survivors) != 1 || survivors[0].URL != "https://a.example/url1" {
		t.Fatalf("expected only url1 to survive, got %+v", survivors)
	}
	if removed[MethodTitle] != 1 {
		t.Fatalf("url2 should be removed by title_match: %v", removed)
	}
	if removed[MethodContentHash] != 1 {
		t.Fatalf("url3 should be removed by content_hash_match: %v", removed)
	}
}
