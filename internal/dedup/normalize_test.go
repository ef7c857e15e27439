package dedup

import "testing"

func TestNormalizeForHashStripsPunctAndSpace(t *testing.T) {
	a := normalizeForHash("Exchange X lost 5000 BTC today.")
	b := normalizeForHash("exchange  x LOST 5000 btc, today!!")
	if a != b {
		t.Fatalf("formatting variants should normalize identically: %q vs %q", a, b)
	}

	// 中文标点同样被吸收
	c := normalizeForHash("交易所遭攻击，损失惨重。")
	d := normalizeForHash("交易所遭攻击 损失惨重")
	if c != d {
		t.Fatalf("chinese punctuation should be stripped: %q vs %q", c, d)
	}
}

func TestNormalizeForSimilarity(t *testing.T) {
	got := normalizeForSimilarity("  Exchange X：遭“黑客”攻击！  损失 5000 BTC。")
	want := "exchange x遭黑客攻击 损失 5000 btc"
	if got != want {
		t.Fatalf("normalizeForSimilarity = %q, want %q", got, want)
	}
}

func TestContentHashFallsBackToTitle(t *testing.T) {
	h1 := contentHash("同一标题", "")
	h2 := contentHash("另一标题", "同一标题")
	if h1 != h2 {
		t.Fatalf("empty body should hash the title: %q vs %q", h1, h2)
	}
}

func TestJaccardWords(t *testing.T) {
	if j := jaccardWords("a b c d e", "a b c d"); j != 0.8 {
		t.Fatalf("expected 0.8, got %g", j)
	}
	if j := jaccardWords("a b", "c d"); j != 0 {
		t.Fatalf("disjoint sets should be 0, got %g", j)
	}
	if j := jaccardWords("", ""); j != 1 {
		t.Fatalf("two empty titles are identical, got %g", j)
	}
}
