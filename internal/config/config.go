package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppPort string

	PostgresDSN string
	RedisAddr   string

	CronSpec string

	// 爬取范围与预算
	Sources                   []string
	Keywords                  []string
	StartDate                 time.Time
	EndDate                   time.Time
	MaxArticlesPerSource      int
	RequestDelaySeconds       float64
	TimeoutSeconds            int
	MaxRetries                int
	MaxConsecutiveFailures    int
	MaxConsecutiveBeforeStart int
	EnableDedup               bool

	// 反爬站点走无头浏览器边车
	BrowserScraperURL string

	BasicAuthUser string
	BasicAuthPass string
}

func Load() *Config {
	cfg := &Config{
		AppPort:     getEnv("APP_PORT", "9000"),
		PostgresDSN: getEnv("POSTGRES_DSN", "host=localhost user=cryptonews password=cryptonews dbname=cryptonews port=5432 sslmode=disable TimeZone=UTC"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6380"),
		CronSpec:    getEnv("CRON_SPEC", "0 */2 * * *"),

		Sources:                   splitList(getEnv("SOURCES", "jinse,odaily,blockbeats")),
		Keywords:                  splitList(getEnv("KEYWORDS", "")),
		StartDate:                 parseDate(getEnv("START_DATE", "")),
		EndDate:                   parseDate(getEnv("END_DATE", "")),
		MaxArticlesPerSource:      getEnvInt("MAX_ARTICLES_PER_SOURCE", 200),
		RequestDelaySeconds:       getEnvFloat("REQUEST_DELAY_SECONDS", 1.0),
		TimeoutSeconds:            getEnvInt("TIMEOUT_SECONDS", 10),
		MaxRetries:                getEnvInt("MAX_RETRIES", 3),
		MaxConsecutiveFailures:    getEnvInt("MAX_CONSECUTIVE_FAILURES", 20),
		MaxConsecutiveBeforeStart: getEnvInt("MAX_CONSECUTIVE_BEFORE_START", 8),
		EnableDedup:               getEnvBool("ENABLE_DEDUP", true),

		BrowserScraperURL: getEnv("BROWSER_SCRAPER_URL", "http://localhost:4000"),

		BasicAuthUser: getEnv("APP_BASIC_USER", ""),
		BasicAuthPass: getEnv("APP_BASIC_PASS", ""),
	}

	log.Printf("config loaded: port=%s cron=%s sources=%v keywords=%d dedup=%v",
		cfg.AppPort, cfg.CronSpec, cfg.Sources, len(cfg.Keywords), cfg.EnableDedup)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("warn: invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("warn: invalid %s=%q, using default %g", key, v, def)
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("warn: invalid %s=%q, using default %v", key, v, def)
		return def
	}
	return b
}

// splitList 按逗号拆分并去除空项
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDate 解析 YYYY-MM-DD；为空或非法时返回零值（表示该方向不限）
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		log.Printf("warn: invalid date %q, ignored", s)
		return time.Time{}
	}
	return t
}
