package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/LJTian/CryptoNewsHub/internal/crawler"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Source 描述一个新闻源站点，例如 jinse / odaily / blockbeats
type Source struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Code    string `gorm:"size:64;uniqueIndex" json:"code"`
	Name    string `gorm:"size:128" json:"name"`
	BaseURL string `gorm:"size:256" json:"baseUrl"`
	Status  string `gorm:"size:32;index" json:"status"` // active / disabled

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Article struct {
	ID     string `gorm:"primaryKey;size:40" json:"id"`
	Title  string `gorm:"size:512" json:"title"`
	URL    string `gorm:"size:1024;uniqueIndex" json:"url"`
	Source string `gorm:"size:64;index" json:"source"`
	Author string `gorm:"size:128" json:"author"`
	// 正文全文；长度不设上限，站点文章可能很长
	BodyText string `gorm:"type:text" json:"bodyText"`
	// PublishedAt 站点自报时间，可能缺失
	PublishedAt *time.Time `gorm:"index" json:"publishedAt"`
	// PublishedDate 日期 YYYY-MM-DD（东八区），用于按日期筛选展示
	PublishedDate   string                      `gorm:"size:10;index" json:"publishedDate"`
	ScrapedAt       time.Time                   `gorm:"index" json:"scrapedAt"`
	MatchedKeywords datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"matchedKeywords"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Source{}, &Article{}); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return &Store{DB: db, Redis: rdb}, nil
}

// EnsureSource 确保某个来源存在
func (s *Store) EnsureSource(code, name, baseURL string) (*Source, error) {
	src := &Source{}
	if err := s.DB.Where("code = ?", code).First(src).Error; err == nil {
		return src, nil
	}

	src = &Source{
		Code:    code,
		Name:    name,
		BaseURL: baseURL,
		Status:  "active",
	}
	if err := s.DB.Create(src).Error; err != nil {
		return nil, err
	}
	return src, nil
}

// ListSources 返回全部来源
func (s *Store) ListSources() ([]Source, error) {
	var list []Source
	if err := s.DB.Order("code ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// 东八区，用于日期展示与筛选
var locEast8 *time.Location

func init() {
	locEast8, _ = time.LoadLocation("Asia/Shanghai")
	if locEast8 == nil {
		locEast8 = time.FixedZone("CST", 8*3600)
	}
}

// articleID 以 URL 的 sha1 作为主键，天然幂等
func articleID(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
// （部分站点页面可能含 GBK/混编）
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// truncateRunesDB 按 rune 数截断字符串，确保不会超过数据库字段长度。
// 防止站点返回异常长文本导致入库失败
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

// Exists 按 URL 判断文章是否已入库
func (s *Store) Exists(url string) bool {
	var count int64
	s.DB.Model(&Article{}).Where("url = ?", url).Count(&count)
	return count > 0
}

// Save 保存一篇文章。以 URL 为幂等键：新建返回 true，
// 已存在返回 false（不报错）；只有存储真正不可写时才返回 error
func (s *Store) Save(a crawler.Article) (bool, error) {
	pubDate := ""
	if a.PublishedAt != nil {
		pubDate = a.PublishedAt.In(locEast8).Format("2006-01-02")
	}

	row := &Article{
		ID:              articleID(a.URL),
		Title:           truncateRunesDB(toValidUTF8(a.Title), 512),
		URL:             a.URL,
		Source:          a.Source,
		Author:          truncateRunesDB(toValidUTF8(a.Author), 128),
		BodyText:        toValidUTF8(a.BodyText),
		PublishedAt:     a.PublishedAt,
		PublishedDate:   pubDate,
		ScrapedAt:       a.ScrapedAt,
		MatchedKeywords: datatypes.NewJSONSlice(a.MatchedKeywords),
	}

	res := s.DB.Where("url = ?", a.URL).FirstOrCreate(row)
	if res.Error != nil {
		return false, fmt.Errorf("save article: %w", res.Error)
	}

	// RowsAffected == 1 说明本次是新建；已存在时不覆盖旧数据
	return res.RowsAffected == 1, nil
}

// ListRecent 返回最近 days 天抓取的文章，用于预热去重缓存
func (s *Store) ListRecent(days int) ([]crawler.Article, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)

	var rows []Article
	if err := s.DB.Where("scraped_at >= ?", since).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]crawler.Article, 0, len(rows))
	for _, r := range rows {
		out = append(out, crawler.Article{
			URL:             r.URL,
			Title:           r.Title,
			PublishedAt:     r.PublishedAt,
			Author:          r.Author,
			BodyText:        r.BodyText,
			ScrapedAt:       r.ScrapedAt,
			Source:          r.Source,
			MatchedKeywords: r.MatchedKeywords,
		})
	}
	return out, nil
}

// ListArticles 按来源、关键词与可选日期返回文章列表，并使用 Redis 做简单缓存
// source: 来源 code，可为空
// keyword: 可选，匹配 matched_keywords 中的命中词
// date: 可选，格式 2006-01-02，指定则只返回该日期的数据
func (s *Store) ListArticles(source, keyword, date string, limit int) ([]Article, error) {
	if limit <= 0 || limit > 1000 {
		limit = 20
	}

	ctx := context.Background()
	cacheKey := fmt.Sprintf("articles:list:%s:%s:%s:%d", source, keyword, date, limit)

	// L2: Redis 缓存
	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []Article
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("warn: redis get %s: %v", cacheKey, err)
		}
	}

	var list []Article
	db := s.DB.Model(&Article{})
	if source != "" {
		db = db.Where("source = ?", source)
	}
	if keyword != "" {
		db = db.Where("matched_keywords @> ?", fmt.Sprintf(`["%s"]`, keyword))
	}
	if date != "" {
		db = db.Where("published_date = ?", date)
	}
	if err := db.Order("published_at DESC NULLS LAST").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}

	// 回写缓存（5 分钟，减轻列表页频繁刷新的 DB 压力）
	const listCacheTTL = 5 * time.Minute
	if s.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err()
		}
	}

	return list, nil
}

// ListPublishedDates 返回有数据的日期列表（倒序），结果缓存 5 分钟
func (s *Store) ListPublishedDates(source string, limit int) ([]string, error) {
	if limit <= 0 || limit > 365 {
		limit = 31
	}
	ctx := context.Background()
	cacheKey := fmt.Sprintf("articles:dates:%s:%d", source, limit)
	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []string
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	sql := `SELECT DISTINCT published_date AS d FROM articles WHERE published_date <> ''`
	args := []interface{}{}
	if source != "" {
		sql += ` AND source = ?`
		args = append(args, source)
	}
	sql += ` ORDER BY d DESC LIMIT ?`
	args = append(args, limit)

	var rows []struct{ D string }
	if err := s.DB.Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.D != "" {
			dates = append(dates, r.D)
		}
	}
	if s.Redis != nil && len(dates) > 0 {
		if bs, err := json.Marshal(dates); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, 5*time.Minute).Err()
		}
	}
	return dates, nil
}
