package crawler

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Parser 把抓到的页面解析为候选文章。按站点各自实现，核心流程不关心细节
type Parser interface {
	Parse(body, url, source string) (Article, error)
}

// selectorSet 每个站点一组选择器；页面结构可能调整，这里按当前 DOM 做尽力解析
type selectorSet struct {
	title   []string
	time    []string
	author  []string
	content []string
}

var sourceSelectors = map[string]selectorSet{
	"jinse": {
		title:   []string{"h1.js-article-title", "h1"},
		time:    []string{"div.js-article-meta time", "span.date", "time"},
		author:  []string{"a.js-article-author", "span.author"},
		content: []string{"div.js-article-content p", "div.article-content p", "article p"},
	},
	"odaily": {
		title:   []string{"h1.post-title", "h1"},
		time:    []string{"span.post-time", "time"},
		author:  []string{"a.author-name", "span.author"},
		content: []string{"div.post-content p", "article p"},
	},
	"blockbeats": {
		title:   []string{"h1.article-title", "h1"},
		time:    []string{"span.article-time", "time"},
		author:  []string{"a.article-author", "span.author"},
		content: []string{"div.article-detail p", "article p"},
	},
}

// 站点常见的几种时间写法，依次尝试
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006年01月02日 15:04",
	time.RFC3339,
}

// locEast8 站点时间默认按东八区解释
var locEast8 = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}()

// HTMLParser 基于 goquery 的通用解析器，按站点查选择器表
type HTMLParser struct{}

func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

func (p *HTMLParser) Parse(body, url, source string) (Article, error) {
	sels, ok := sourceSelectors[source]
	if !ok {
		return Article{}, fmt.Errorf("parse: no selectors for source %q", source)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return Article{}, fmt.Errorf("parse %s: %w", url, err)
	}

	title := firstText(doc, sels.title)
	if title == "" {
		return Article{}, fmt.Errorf("parse %s: missing title", url)
	}

	var published *time.Time
	if raw := firstText(doc, sels.time); raw != "" {
		if t, ok := parseSourceTime(raw); ok {
			published = &t
		}
	}

	var paragraphs []string
	for _, sel := range sels.content {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				paragraphs = append(paragraphs, t)
			}
		})
		if len(paragraphs) > 0 {
			break
		}
	}

	return Article{
		URL:         url,
		Title:       title,
		PublishedAt: published,
		Author:      firstText(doc, sels.author),
		BodyText:    strings.Join(paragraphs, "\n"),
		ScrapedAt:   time.Now(),
		Source:      source,
	}, nil
}

// firstText 按选择器顺序取第一个非空文本
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func parseSourceTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, locEast8); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
