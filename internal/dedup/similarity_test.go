package dedup

import (
	"strings"
	"testing"
)

func TestSimilarityRatioBasics(t *testing.T) {
	if r := similarityRatio("同一段文字", "同一段文字"); r != 1 {
		t.Fatalf("identical strings should score 1, got %g", r)
	}
	if r := similarityRatio("abcd", "wxyz"); r != 0 {
		t.Fatalf("disjoint strings should score 0, got %g", r)
	}
	if r := similarityRatio("", ""); r != 1 {
		t.Fatalf("two empty strings should score 1, got %g", r)
	}
	if r := similarityRatio("abc", ""); r != 0 {
		t.Fatalf("one empty string should score 0, got %g", r)
	}
}

func TestSimilarityRatioKnownValue(t *testing.T) {
	// "abcd" vs "bcde"：最长公共子串 "bcd"，M=3，ratio = 2*3/8 = 0.75
	if r := similarityRatio("abcd", "bcde"); r != 0.75 {
		t.Fatalf("expected 0.75, got %g", r)
	}
}

func TestSimilarityRatioExactBoundary(t *testing.T) {
	// 20 字符对 20 字符，匹配 17：ratio = 34/40 = 0.85，恰好落在判重阈值上
	a := strings.Repeat("a", 20)
	b := strings.Repeat("a", 17) + "xyz"
	if r := similarityRatio(a, b); r != 0.85 {
		t.Fatalf("expected exactly 0.85, got %g", r)
	}
}

func TestSimilarityRatioCountsRunesNotBytes(t *testing.T) {
	// 中文按字符比较：四字中三字相同 → 2*3/8 = 0.75
	if r := similarityRatio("比特币涨", "比特币跌"); r != 0.75 {
		t.Fatalf("expected 0.75 for 3-of-4 rune match, got %g", r)
	}
}
