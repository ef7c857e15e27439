package dedup

import (
	"sort"

	"github.com/LJTian/CryptoNewsHub/internal/crawler"
)

// 逐对比较的经验阈值。这些常数来自长期线上观察，没有推导过程，
// 调整前先在历史数据上回放验证
const (
	pairwiseTitleThreshold    = 0.85
	pairwiseBodyThreshold     = 0.80
	pairwiseBodyTitleFloor    = 0.60
	pairwiseCombinedThreshold = 0.75
	pairwiseTitleWeight       = 0.6
	pairwiseBodyWeight        = 0.4
	// 正文只取归一化后前 500 个字符参与比较，控制 O(n²) 的单次开销
	pairwiseBodyPrefix = 500
)

// PairwiseDeduplicator 无存储依托时的会话内兜底去重：按发布时间升序，
// 每个候选与所有已接受文章逐对比较加权相似度，命中即弃，保留发布更早的一篇。
// O(n²) 只适合单轮几十到几百篇的批量，不能当持久索引用
type PairwiseDeduplicator struct{}

func NewPairwiseDeduplicator() *PairwiseDeduplicator {
	return &PairwiseDeduplicator{}
}

// normalized 预先算好归一化标题与正文前缀，避免比较时重复归一化
type normalized struct {
	article crawler.Article
	title   string
	body    string
}

func (p *PairwiseDeduplicator) Filter(candidates []crawler.Article) ([]crawler.Article, map[string]int) {
	ordered := make([]crawler.Article, len(candidates))
	copy(ordered, candidates)

	// 发布时间升序，缺失时间的排最后；稳定排序保证同时间的相对顺序确定
	sort.SliceStable(ordered, func(i, j int) bool {
		ti, tj := ordered[i].PublishedAt, ordered[j].PublishedAt
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.Before(*tj)
	})

	accepted := make([]normalized, 0, len(ordered))
	removed := make(map[string]int)

	for _, a := range ordered {
		cand := normalized{
			article: a,
			title:   normalizeForSimilarity(a.Title),
			body:    bodyPrefix(normalizeForSimilarity(a.BodyText)),
		}

		dup := false
		for _, prev := range accepted {
			if isPairDuplicate(cand, prev) {
				// 先入者发布更早，保留先入者
				dup = true
				break
			}
		}
		if dup {
			removed[MethodPairwise]++
			continue
		}
		accepted = append(accepted, cand)
	}

	survivors := make([]crawler.Article, 0, len(accepted))
	for _, n := range accepted {
		survivors = append(survivors, n.article)
	}
	return survivors, removed
}

func isPairDuplicate(a, b normalized) bool {
	titleSim := similarityRatio(a.title, b.title)
	bodySim := similarityRatio(a.body, b.body)
	return pairVerdict(titleSim, bodySim)
}

// pairVerdict 三个条件任一命中即视为重复：
// 标题高度相似；或正文高度相似且标题不至于完全无关；或加权综合分超线
func pairVerdict(titleSim, bodySim float64) bool {
	if titleSim >= pairwiseTitleThreshold {
		return true
	}
	if bodySim >= pairwiseBodyThreshold && titleSim >= pairwiseBodyTitleFloor {
		return true
	}
	combined := pairwiseTitleWeight*titleSim + pairwiseBodyWeight*bodySim
	return combined >= pairwiseCombinedThreshold
}

func bodyPrefix(s string) string {
	rs := []rune(s)
	if len(rs) <= pairwiseBodyPrefix {
		return s
	}
	return string(rs[:pairwiseBodyPrefix])
}
