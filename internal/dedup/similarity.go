package dedup

// similarityRatio Ratcliff-Obershelp 序列相似度（与 Python difflib 的 ratio 同义）：
// 2*M / (len(a)+len(b))，M 为递归取最长公共子串的匹配字符总数。按 rune 计算，
// 中文字符不会被按字节撕开
func similarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	m := matchingTotal(ra, rb)
	return 2 * float64(m) / float64(len(ra)+len(rb))
}

// matchingTotal 找最长公共子串，再对其左右两侧递归累加匹配数
func matchingTotal(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingTotal(a[:ai], b[:bi])
	total += matchingTotal(a[ai+size:], b[bi+size:])
	return total
}

// longestCommonSubstring 动态规划找最长公共子串，返回两侧起点与长度。
// 只保留上一行的计数，内存 O(len(b))
func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}
