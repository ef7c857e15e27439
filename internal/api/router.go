package api

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/LJTian/CryptoNewsHub/internal/crawler"
	"github.com/LJTian/CryptoNewsHub/internal/storage"
	"github.com/gin-gonic/gin"
)

// ScrapeFunc 触发一轮爬取
type ScrapeFunc func(parallel bool) (crawler.ScrapeResult, error)

// SourceStatsFunc 返回各来源最近一轮的统计
type SourceStatsFunc func() map[string]crawler.ScrapeResult

type Server struct {
	store       *storage.Store
	runScrape   ScrapeFunc
	sourceStats SourceStatsFunc

	mu         sync.Mutex
	lastResult *crawler.ScrapeResult
	scraping   bool
}

func NewServer(store *storage.Store, runScrape ScrapeFunc, sourceStats SourceStatsFunc) *Server {
	return &Server{
		store:       store,
		runScrape:   runScrape,
		sourceStats: sourceStats,
	}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/articles", s.listArticles)
		v1.GET("/articles/dates", s.listDates)
		v1.GET("/sources", s.listSources)
		v1.GET("/stats", s.stats)
		v1.POST("/scrape", s.scrape)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listArticles(c *gin.Context) {
	source := c.Query("source")
	keyword := c.Query("keyword")
	date := c.Query("date")

	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 20
	}

	items, err := s.store.ListArticles(source, keyword, date, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    items,
	})
}

func (s *Server) listDates(c *gin.Context) {
	source := c.Query("source")
	dates, err := s.store.ListPublishedDates(source, 31)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    dates,
	})
}

// listSources 返回来源注册表与各来源最近一轮的统计
func (s *Server) listSources(c *gin.Context) {
	sources, err := s.store.ListSources()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data": gin.H{
			"sources": sources,
			"stats":   s.sourceStats(),
		},
	})
}

// RecordResult 登记一轮爬取的汇总结果，供 /stats 查询。
// 定时任务与手动触发的结果都走这条路径
func (s *Server) RecordResult(result crawler.ScrapeResult) {
	s.mu.Lock()
	s.lastResult = &result
	s.mu.Unlock()
}

// stats 返回最近一轮的汇总统计（含去重剔除明细）
func (s *Server) stats(c *gin.Context) {
	s.mu.Lock()
	last := s.lastResult
	s.mu.Unlock()

	if last == nil {
		c.JSON(http.StatusOK, gin.H{
			"code":    "ok",
			"message": "no scrape run yet",
			"data":    nil,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    last,
	})
}

// scrape 手动触发一轮爬取。同一时刻只允许一轮在跑
func (s *Server) scrape(c *gin.Context) {
	s.mu.Lock()
	if s.scraping {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{
			"code":    "scrape_in_progress",
			"message": "a scrape run is already in progress",
		})
		return
	}
	s.scraping = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scraping = false
		s.mu.Unlock()
	}()

	parallel := c.DefaultQuery("parallel", "true") != "false"
	result, err := s.runScrape(parallel)
	s.RecordResult(result)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "scrape_failed",
			"message": err.Error(),
			"data":    result,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    result,
	})
}
