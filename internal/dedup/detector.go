package dedup

import (
	"github.com/LJTian/CryptoNewsHub/internal/crawler"
)

// 匹配方式名称与固定置信度。置信度只用于报表，不参与阈值判断
const (
	MethodURL         = "url_match"
	MethodTitle       = "title_match"
	MethodContentHash = "content_hash_match"
	MethodSimilar     = "similar_title"
	MethodPairwise    = "pairwise_similarity"
)

var methodConfidence = map[string]int{
	MethodURL:         100,
	MethodTitle:       95,
	MethodContentHash: 90,
	MethodSimilar:     80,
	MethodPairwise:    75,
}

// Confidence 返回匹配方式对应的固定置信度
func Confidence(method string) int {
	return methodConfidence[method]
}

// Match 一次重复判定命中的方式
type Match struct {
	Method     string
	Confidence int
}

// Deduplicator 两种去重策略的统一入口：过滤候选列表，
// 返回幸存者与按匹配方式统计的剔除数
type Deduplicator interface {
	Filter(candidates []crawler.Article) ([]crawler.Article, map[string]int)
}

// fuzzyTitleThreshold 模糊标题判重阈值：词集合 Jaccard 严格大于 0.8 才算重复
const fuzzyTitleThreshold = 0.8

// Cache 进程生命周期的去重索引：已见 URL、归一化标题、内容哈希三个集合。
// 由存储层最近若干天的数据预热，随本轮接受的文章增量扩展；本身从不落盘，
// 任何时候都可以从存储重建
type Cache struct {
	urls   map[string]struct{}
	titles map[string]struct{}
	hashes map[string]struct{}
}

func NewCache() *Cache {
	return &Cache{
		urls:   make(map[string]struct{}),
		titles: make(map[string]struct{}),
		hashes: make(map[string]struct{}),
	}
}

// Warm 用存量文章预热三个集合
func (c *Cache) Warm(articles []crawler.Article) {
	for _, a := range articles {
		c.Add(a)
	}
}

// Add 把一篇已接受的文章登记进索引
func (c *Cache) Add(a crawler.Article) {
	c.urls[a.URL] = struct{}{}
	c.titles[normalizeTitle(a.Title)] = struct{}{}
	c.hashes[contentHash(a.Title, a.BodyText)] = struct{}{}
}

// Size 已登记的 URL 数，日志展示用
func (c *Cache) Size() int {
	return len(c.urls)
}

// CacheDetector 缓存加持的分层判重器。四层检查按置信度从高到低排列，
// 命中即返回，平价时总是归到最先（也最便宜）的那一层
type CacheDetector struct {
	cache *Cache
}

func NewCacheDetector(cache *Cache) *CacheDetector {
	if cache == nil {
		cache = NewCache()
	}
	return &CacheDetector{cache: cache}
}

// Check 判定单篇候选是否重复。不重复时把它登记进缓存，
// 供本轮后续候选比对
func (d *CacheDetector) Check(a crawler.Article) (Match, bool) {
	if _, ok := d.cache.urls[a.URL]; ok {
		return Match{Method: MethodURL, Confidence: Confidence(MethodURL)}, true
	}

	title := normalizeTitle(a.Title)
	if _, ok := d.cache.titles[title]; ok {
		return Match{Method: MethodTitle, Confidence: Confidence(MethodTitle)}, true
	}

	if _, ok := d.cache.hashes[contentHash(a.Title, a.BodyText)]; ok {
		return Match{Method: MethodContentHash, Confidence: Confidence(MethodContentHash)}, true
	}

	for seen := range d.cache.titles {
		if jaccardWords(title, seen) > fuzzyTitleThreshold {
			return Match{Method: MethodSimilar, Confidence: Confidence(MethodSimilar)}, true
		}
	}

	d.cache.Add(a)
	return Match{}, false
}

// Filter 过滤一批候选，返回幸存者与按匹配方式统计的剔除数
func (d *CacheDetector) Filter(candidates []crawler.Article) ([]crawler.Article, map[string]int) {
	survivors := make([]crawler.Article, 0, len(candidates))
	removed := make(map[string]int)

	for _, a := range candidates {
		if m, dup := d.Check(a); dup {
			removed[m.Method]++
			continue
		}
		survivors = append(survivors, a)
	}
	return survivors, removed
}
