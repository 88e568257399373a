// Package verse fetches the verse of the day from the OurManna API,
// caching one verse per local calendar date and degrading to a fixed
// fallback when the API is unreachable.
package verse

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/plan"
)

type VerseOfDay struct {
	Text      string `json:"text"`
	Reference string `json:"reference"`
}

// Fallback served whenever the upstream call fails.
var Fallback = VerseOfDay{
	Text:      `"For I know the plans I have for you," declares the LORD, "plans to prosper you and not to harm you, plans to give you hope and a future."`,
	Reference: "Jeremiah 29:11",
}

type ourMannaResponse struct {
	Verse struct {
		Details struct {
			Text      string `json:"text"`
			Reference string `json:"reference"`
		} `json:"details"`
	} `json:"verse"`
}

type Service struct {
	APIURL     string
	HTTPClient *http.Client
	logger     internal.Logger

	mu         sync.Mutex
	cached     VerseOfDay
	cachedDate string
}

func NewService(apiURL string, logger internal.Logger) *Service {
	return &Service{
		APIURL:     apiURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

// Today returns the verse for the current local date, fetching at most
// once per date.
func (s *Service) Today(ctx context.Context) VerseOfDay {
	date := time.Now().Format(plan.DateLayout)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cachedDate == date {
		return s.cached
	}

	v, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warnf("verse of day fetch failed, serving fallback: %v", err)
		return Fallback
	}
	s.cached = v
	s.cachedDate = date
	return v
}

func (s *Service) fetch(ctx context.Context) (VerseOfDay, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.APIURL, nil)
	if err != nil {
		return VerseOfDay{}, err
	}
	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return VerseOfDay{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return VerseOfDay{}, &internal.AppError{Code: resp.StatusCode, Message: "verse API returned non-200"}
	}
	var body ourMannaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return VerseOfDay{}, err
	}
	return VerseOfDay{
		Text:      `"` + body.Verse.Details.Text + `"`,
		Reference: body.Verse.Details.Reference,
	}, nil
}
