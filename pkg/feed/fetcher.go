package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/jobimport/pkg/domain"
)

const maxFeedSize = 32 << 20

// Fetcher retrieves feeds over HTTP with retries and parses them into raw items
type Fetcher struct {
	client      *http.Client
	parser      *Parser
	userAgent   string
	retries     int
	backoff     time.Duration
	concurrency int
}

// FetcherParams configures the fetcher
type FetcherParams struct {
	Timeout     time.Duration // per request
	Retries     int           // retries after the first attempt
	Backoff     time.Duration // base delay, doubled on every retry
	UserAgent   string
	Concurrency int // parallel fetches of FetchAll
}

// Result is the outcome of fetching a single feed. Error is set only when Success is false.
type Result struct {
	URL          string
	Success      bool
	Items        []domain.RawItem
	TotalFetched int
	Attempts     int
	Error        string
}

// NewFetcher creates a new feed fetcher
func NewFetcher(params FetcherParams) *Fetcher {
	if params.Timeout == 0 {
		params.Timeout = 30 * time.Second
	}
	if params.Backoff == 0 {
		params.Backoff = time.Second
	}
	if params.Concurrency <= 0 {
		params.Concurrency = 5
	}
	if params.Retries < 0 {
		params.Retries = 0
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: params.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		parser:      NewParser(),
		userAgent:   params.UserAgent,
		retries:     params.Retries,
		backoff:     params.Backoff,
		concurrency: params.Concurrency,
	}
}

// Fetch retrieves and parses a feed. Transport errors and non-2xx responses are retried with exponential backoff,
// parse errors are not. It never returns an error, the failure is reported in the result.
func (f *Fetcher) Fetch(ctx context.Context, url string) Result {
	res := Result{URL: url}

	// parse errors end the retry loop, the real error is kept aside
	var parseErr error
	errParseStop := errors.New("stop on parse error")
	r := repeater.NewBackoff(f.retries+1, f.backoff, repeater.WithMaxDelay(time.Minute))
	err := r.Do(ctx, func() error {
		res.Attempts++
		body, err := f.get(ctx, url)
		if err != nil {
			lgr.Printf("[WARN] fetch %s, attempt %d: %v", url, res.Attempts, err)
			return err
		}
		items, err := f.parser.ParseItems(body)
		if err != nil {
			parseErr = err
			return errParseStop
		}
		res.Items = items
		return nil
	}, errParseStop)

	if parseErr != nil {
		err = parseErr
	}
	if err != nil {
		lgr.Printf("[ERROR] failed to fetch %s after %d attempt(s): %v", url, res.Attempts, err)
		res.Error = err.Error()
		res.Items = nil
		return res
	}

	res.Success = true
	res.TotalFetched = len(res.Items)
	lgr.Printf("[DEBUG] fetched %d items from %s", res.TotalFetched, url)
	return res
}

// FetchAll fetches feeds independently with bounded parallelism. It returns one result per url in input order,
// a failed feed does not affect the others.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	g := errgroup.Group{}
	g.SetLimit(f.concurrency)
	for i, url := range urls {
		g.Go(func() error {
			results[i] = f.Fetch(ctx, url)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// get retrieves the raw document
func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// browser headers first, the configured user agent wins
	addBrowserHeaders(req)
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// read body with size limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
