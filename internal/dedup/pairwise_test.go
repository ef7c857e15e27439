package dedup

import (
	"strings"
	"testing"

	"github.com/LJTian/CryptoNewsHub/internal/crawler"
)

func TestPairVerdictThresholds(t *testing.T) {
	cases := []struct {
		name     string
		titleSim float64
		bodySim  float64
		want     bool
	}{
		{"标题恰好 0.85 即重复", 0.85, 0, true},
		{"标题 0.84 且正文很低则不重复", 0.84, 0.10, false},
		{"正文 0.80 且标题 0.60 即重复", 0.60, 0.80, true},
		{"正文 0.79 且标题 0.60 不重复", 0.60, 0.79, false},
		{"正文达标但标题低于下限不重复", 0.59, 0.80, false},
		{"综合分 0.754 过线", 0.75, 0.76, true},
		{"综合分 0.748 不过线", 0.74, 0.76, false},
		// 注意：0.84/0.79 的组合会被综合分分支（0.82 >= 0.75）拦下
		{"标题 0.84 正文 0.79 由综合分命中", 0.84, 0.79, true},
	}

	for _, c := range cases {
		if got := pairVerdict(c.titleSim, c.bodySim); got != c.want {
			t.Fatalf("%s: pairVerdict(%g, %g) = %v, want %v", c.name, c.titleSim, c.bodySim, got, c.want)
		}
	}
}

func TestPairwiseKeepsEarliestPublished(t *testing.T) {
	// 近似重复的两篇，保留发布更早的那篇，与输入顺序无关
	early := crawler.Article{
		URL:         "https://a.example/early",
		Title:       "Exchange X 遭黑客攻击 损失超 5000 BTC",
		BodyText:    "今日凌晨，Exchange X 热钱包遭攻击，初步估计损失超过 5000 BTC。",
		PublishedAt: day(1),
	}
	late := crawler.Article{
		URL:         "https://b.example/late",
		Title:       "Exchange X 遭黑客攻击 损失超 5000 BTC!",
		BodyText:    "今日凌晨，Exchange X 热钱包遭攻击，初步估计损失超过 5000 BTC。",
		PublishedAt: day(3),
	}

	// 故意把晚发布的排在前面
	survivors, removed := NewPairwiseDeduplicator().Filter([]crawler.Article{late, early})
	if len(survivors) != 1 {
		t.Fatalf("expected 1 survivor, got %d", len(survivors))
	}
	if survivors[0].URL != early.URL {
		t.Fatalf("survivor should be the earliest published, got %s", survivors[0].URL)
	}
	if removed[MethodPairwise] != 1 {
		t.Fatalf("removal should be tallied as pairwise_similarity: %v", removed)
	}
}

func TestPairwiseUndatedSortLast(t *testing.T) {
	dated := crawler.Article{
		URL:         "https://a.example/dated",
		Title:       "BTC 突破 10 万美元创历史新高",
		BodyText:    "比特币价格首次突破 10 万美元整数关口。",
		PublishedAt: day(2),
	}
	undated := crawler.Article{
		URL:      "https://b.example/undated",
		Title:    "BTC 突破 10 万美元创历史新高！",
		BodyText: "比特币价格首次突破 10 万美元整数关口。",
	}

	survivors, _ := NewPairwiseDeduplicator().Filter([]crawler.Article{undated, dated})
	if len(survivors) != 1 {
		t.Fatalf("expected 1 survivor, got %d", len(survivors))
	}
	// 无日期的排最后，被有日期的先占位后剔除
	if survivors[0].URL != dated.URL {
		t.Fatalf("dated article should win over undated one, got %s", survivors[0].URL)
	}
}

func TestPairwiseDistinctArticlesAllSurvive(t *testing.T) {
	list := []crawler.Article{
		{URL: "https://a.example/1", Title: "美联储宣布降息 50 个基点", BodyText: "美联储周三宣布降息。", PublishedAt: day(1)},
		{URL: "https://a.example/2", Title: "以太坊完成坎昆升级", BodyText: "升级顺利完成，gas 费显著下降。", PublishedAt: day(2)},
		{URL: "https://a.example/3", Title: "某 DeFi 协议遭闪电贷攻击", BodyText: "攻击者获利约 200 万美元。", PublishedAt: day(3)},
	}

	survivors, removed := NewPairwiseDeduplicator().Filter(list)
	if len(survivors) != 3 {
		t.Fatalf("distinct articles should all survive, got %d", len(survivors))
	}
	if len(removed) != 0 {
		t.Fatalf("nothing should be removed: %v", removed)
	}
}

func TestPairwiseTitleBoundaryOnRealStrings(t *testing.T) {
	// 构造归一化后 ratio 恰为 0.85 的标题对（20 字符 vs 20 字符，17 匹配）
	a := crawler.Article{URL: "https://a.example/1", Title: strings.Repeat("a", 20), BodyText: "x", PublishedAt: day(1)}
	b := crawler.Article{URL: "https://a.example/2", Title: strings.Repeat("a", 17) + "xyz", BodyText: "y", PublishedAt: day(2)}

	survivors, _ := NewPairwiseDeduplicator().Filter([]crawler.Article{a, b})
	if len(survivors) != 1 {
		t.Fatalf("title similarity exactly 0.85 should be a duplicate, got %d survivors", len(survivors))
	}
	if survivors[0].URL != a.URL {
		t.Fatalf("earlier article should survive, got %s", survivors[0].URL)
	}
}
