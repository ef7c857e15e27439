package dedup

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"unicode"
)

// normalizeTitle 精确标题匹配用的归一化：小写 + 去首尾空白
func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeForHash 内容哈希前的归一化：小写后只保留字母和数字，
// 吸收中英文标点、空白等排版差异，让仅格式不同的同文命中同一哈希
func normalizeForHash(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// contentHash 归一化后的 sha1 十六进制摘要；正文为空时退回标题
func contentHash(title, body string) string {
	content := body
	if strings.TrimSpace(content) == "" {
		content = title
	}
	h := sha1.Sum([]byte(normalizeForHash(content)))
	return hex.EncodeToString(h[:])
}

// normalizeForSimilarity 逐对比较用的归一化：小写、去中英文标点、压缩空白
func normalizeForSimilarity(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// 中英文标点一并去掉（。，、“”!,. 等都在 Punct/Symbol 类里）
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

// jaccardWords 标题词集合的 Jaccard 相似度
func jaccardWords(a, b string) float64 {
	wa := strings.Fields(a)
	wb := strings.Fields(b)
	if len(wa) == 0 && len(wb) == 0 {
		return 1
	}
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(wa))
	for _, w := range wa {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(wb))
	for _, w := range wb {
		setB[w] = struct{}{}
	}

	inter := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}
