package dataflows

import (
	"context"
	"fmt"

	"github.com/quorumtrade/boardroom/internal/models"
)

// SearchService implements SearchProvider by combining Finnhub company news
// with Google News restricted to discussion sites for social chatter.
type SearchService struct {
	finnhub *FinnhubClient
	google  *GoogleNewsClient
}

// NewSearchService wires the two search backends.
func NewSearchService(finnhub *FinnhubClient, google *GoogleNewsClient) *SearchService {
	return &SearchService{finnhub: finnhub, google: google}
}

func (ss *SearchService) SearchNews(ctx context.Context, ticker string, hours int) ([]models.SearchResult, error) {
	if ss.finnhub != nil {
		results, err := ss.finnhub.SearchNews(ctx, ticker, hours)
		if err == nil {
			return results, nil
		}
		// Finnhub down or unconfigured: Google News still answers.
		if ss.google == nil {
			return nil, err
		}
	}
	if ss.google == nil {
		return nil, fmt.Errorf("no search backends configured")
	}
	return ss.google.Search(ctx, ticker+" stock", hours, 20)
}

func (ss *SearchService) SearchSocial(ctx context.Context, ticker string, hours int) ([]models.SearchResult, error) {
	if ss.google == nil {
		return nil, fmt.Errorf("no search backends configured")
	}
	query := fmt.Sprintf("%s stock (site:reddit.com OR site:stocktwits.com)", ticker)
	return ss.google.Search(ctx, query, hours, 20)
}
