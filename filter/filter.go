package filter

// Seen reports whether a URL already has results
type Seen interface {
	Has(url string) bool
}

// Filter selects the URLs a run still has to scrape
type Filter struct {
	pagesPerLaunch int
}

// NewFilter creates a new Filter instance. A pagesPerLaunch of zero or less
// means no cap.
func NewFilter(pagesPerLaunch int) *Filter {
	return &Filter{
		pagesPerLaunch: pagesPerLaunch,
	}
}

// Pending drops URLs already in seen and caps the rest to the pages per launch.
// Matching is exact, no URL normalization is applied. Input order is kept.
func (f *Filter) Pending(urls []string, seen Seen) []string {
	var pending []string

	for _, url := range urls {
		if f.pagesPerLaunch > 0 && len(pending) >= f.pagesPerLaunch {
			break
		}
		if seen != nil && seen.Has(url) {
			continue
		}
		pending = append(pending, url)
	}

	return pending
}
