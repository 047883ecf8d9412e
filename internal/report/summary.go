package report

import (
	"slices"
	"time"
)

// Visit records one page opened during a crawl.
type Visit struct {
	// URL is the page URL.
	URL string `json:"url"`

	// Depth is the crawl level of the page.
	Depth int `json:"depth"`

	// FromCache is true when the body was served from the cache.
	FromCache bool `json:"fromCache"`

	// Example is the path of the example file written for the page, if any.
	Example string `json:"example,omitempty"`
}

// DepthCount is the number of pages opened at one crawl level.
type DepthCount struct {
	Depth int `json:"depth"`
	Pages int `json:"pages"`
}

// Summary describes a finished crawl.
type Summary struct {
	StartURL   string    `json:"startUrl"`
	MaxDepth   int       `json:"maxDepth"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Visits     []Visit   `json:"visits"`

	// Error is the error that ended the crawl early, if any.
	Error string `json:"error,omitempty"`
}

// NewSummary starts a summary for a crawl beginning at startedAt.
func NewSummary(startURL string, maxDepth int, startedAt time.Time) *Summary {
	return &Summary{
		StartURL:  startURL,
		MaxDepth:  maxDepth,
		StartedAt: startedAt,
		Visits:    make([]Visit, 0),
	}
}

// Add records a visit.
func (s *Summary) Add(v Visit) {
	s.Visits = append(s.Visits, v)
}

// Finish records the end of the crawl and the error that ended it.
func (s *Summary) Finish(at time.Time, err error) {
	s.FinishedAt = at
	if err != nil {
		s.Error = err.Error()
	}
}

// Duration returns how long the crawl took.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Cached returns the number of pages served from the cache.
func (s *Summary) Cached() int {
	var n int
	for _, v := range s.Visits {
		if v.FromCache {
			n++
		}
	}
	return n
}

// Fetched returns the number of pages fetched over the network.
func (s *Summary) Fetched() int {
	return len(s.Visits) - s.Cached()
}

// Examples returns the number of example files written.
func (s *Summary) Examples() int {
	var n int
	for _, v := range s.Visits {
		if v.Example != "" {
			n++
		}
	}
	return n
}

// ByDepth returns the page count of each level, shallowest first.
func (s *Summary) ByDepth() []DepthCount {
	counts := make(map[int]int)
	for _, v := range s.Visits {
		counts[v.Depth]++
	}

	result := make([]DepthCount, 0, len(counts))
	for depth, pages := range counts {
		result = append(result, DepthCount{Depth: depth, Pages: pages})
	}
	slices.SortFunc(result, func(a, b DepthCount) int {
		return a.Depth - b.Depth
	})
	return result
}
