package crawler

import (
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/gocolly/colly/v2"
)

// SeekLatestID 抓取站点列表页，从文章链接里提取最大的数字 ID 作为回溯起点。
// 解析不到任何 ID 时返回错误，由调用方退回 FallbackID——可用性优先于完整性
func SeekLatestID(spec SourceSpec, timeout time.Duration) (int, error) {
	host := ""
	if u, err := url.Parse(spec.ListingURL); err == nil {
		host = u.Hostname()
	}

	c := colly.NewCollector(
		colly.AllowedDomains(host),
		colly.UserAgent("CryptoNewsHubBot/1.0"),
	)
	c.SetRequestTimeout(timeout)

	maxID := 0
	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		m := spec.IDPattern.FindStringSubmatch(e.Attr("href"))
		if len(m) < 2 {
			return
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return
		}
		if id > maxID {
			maxID = id
		}
	})

	if err := c.Visit(spec.ListingURL); err != nil {
		return 0, fmt.Errorf("seek %s: visit listing: %w", spec.Code, err)
	}

	if maxID == 0 {
		return 0, fmt.Errorf("seek %s: no article id found on listing page", spec.Code)
	}

	log.Printf("seek %s: latest id = %d", spec.Code, maxID)
	return maxID, nil
}
