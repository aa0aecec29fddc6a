package dataflows

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/quorumtrade/boardroom/internal/models"
)

// GoogleNewsClient scrapes Google News search results. It backs the social
// half of the search provider by restricting queries to discussion sites.
type GoogleNewsClient struct {
	client *resty.Client
	cache  *CacheManager
}

// NewGoogleNewsClient creates a Google News scraper.
func NewGoogleNewsClient(cacheDir string, cacheEnabled bool) *GoogleNewsClient {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; Boardroom/1.0)")

	return &GoogleNewsClient{
		client: client,
		cache:  NewCacheManager(filepath.Join(cacheDir, "google_news"), SearchTTL, cacheEnabled),
	}
}

// Search scrapes articles matching query published within the trailing window.
func (gn *GoogleNewsClient) Search(ctx context.Context, query string, hours, maxResults int) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	cacheKey := map[string]interface{}{"query": query, "hours": hours}
	var cached []models.SearchResult
	if gn.cache.Get("google_news", "search", cacheKey, &cached) {
		return cached, nil
	}

	end := time.Now().UTC()
	start := end.Add(-time.Duration(hours) * time.Hour)
	searchURL := buildGoogleNewsURL(query, start, end)

	var result []models.SearchResult
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := gn.client.R().SetContext(ctx).Get(searchURL)
		if err != nil {
			return fmt.Errorf("fetch Google News: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("HTTP error %d when fetching Google News", resp.StatusCode())
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
		if err != nil {
			return fmt.Errorf("parse HTML: %w", err)
		}

		result = parseGoogleNewsHTML(doc)
		if len(result) > maxResults {
			result = result[:maxResults]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	gn.cache.Set("google_news", "search", cacheKey, result)
	return result, nil
}

func buildGoogleNewsURL(query string, start, end time.Time) string {
	q := query + fmt.Sprintf(" after:%s before:%s",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	return fmt.Sprintf("https://news.google.com/search?q=%s&hl=en&gl=US&ceid=US:en",
		url.QueryEscape(q))
}

func parseGoogleNewsHTML(doc *goquery.Document) []models.SearchResult {
	var results []models.SearchResult

	doc.Find("article").Each(func(i int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("h3").Text())
		if title == "" {
			title = strings.TrimSpace(s.Find("h4").Text())
		}
		if title == "" {
			return
		}

		href, ok := s.Find("a").First().Attr("href")
		if !ok {
			return
		}

		source := strings.TrimSpace(s.Find("div[data-n-tid]").Text())
		if source == "" {
			source = "Google News"
		}

		results = append(results, models.SearchResult{
			Title:       title,
			URL:         cleanGoogleNewsURL(href),
			Snippet:     strings.TrimSpace(s.Find("span").Last().Text()),
			Source:      source,
			PublishedAt: parseRelativeTime(strings.TrimSpace(s.Find("time").Text())),
		})
	})

	return results
}

// cleanGoogleNewsURL removes the Google News redirect wrapper.
func cleanGoogleNewsURL(googleURL string) string {
	if strings.Contains(googleURL, "url=") {
		parts := strings.Split(googleURL, "url=")
		if len(parts) > 1 {
			if decoded, err := url.QueryUnescape(parts[1]); err == nil {
				return decoded
			}
		}
	}
	if strings.HasPrefix(googleURL, "./") {
		return "https://news.google.com/" + strings.TrimPrefix(googleURL, "./")
	}
	return googleURL
}

// parseRelativeTime turns Google News relative timestamps ("3 hours ago")
// into absolute times; unparseable text reads as now.
func parseRelativeTime(text string) time.Time {
	now := time.Now().UTC()
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) < 2 {
		return now
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return now
	}

	switch {
	case strings.HasPrefix(fields[1], "minute"):
		return now.Add(-time.Duration(n) * time.Minute)
	case strings.HasPrefix(fields[1], "hour"):
		return now.Add(-time.Duration(n) * time.Hour)
	case strings.HasPrefix(fields[1], "day"):
		return now.AddDate(0, 0, -n)
	default:
		return now
	}
}
