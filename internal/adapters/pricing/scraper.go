// Package pricing scrapes the current price of a stock from a public quote page.
package pricing

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/htmlindex"

	"stockwatch/internal/adapters/config"
	"stockwatch/internal/metrics"
	"stockwatch/pkg/errors"
	"stockwatch/pkg/logger"
)

const codePlaceholder = "{code}"

// Scraper fetches quote pages and extracts the current price from markup
type Scraper struct {
	client    *http.Client
	pageURL   string
	selector  string
	userAgent string
	log       *logger.Logger
}

// NewScraper creates a scraper with a bounded request timeout
func NewScraper(cfg config.PricingConfig) *Scraper {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Scraper{
		client:    &http.Client{Timeout: timeout},
		pageURL:   cfg.PageURL,
		selector:  cfg.Selector,
		userAgent: cfg.UserAgent,
		log:       logger.Get().With("component", "price_scraper"),
	}
}

// FetchPrice returns the current whole-unit price for code.
// ok is false on any failure; the cause is logged here and never returned.
func (s *Scraper) FetchPrice(ctx context.Context, code string) (int64, bool) {
	start := time.Now()

	price, err := s.fetch(ctx, code)
	if err != nil {
		metrics.RecordPriceFetch(fetchStatus(err), time.Since(start))
		s.log.Warnw("Price unavailable", "stock_code", code, "error", err)
		return 0, false
	}

	metrics.RecordPriceFetch("success", time.Since(start))
	s.log.Debugw("Price fetched", "stock_code", code, "price", price)
	return price, true
}

func (s *Scraper) fetch(ctx context.Context, code string) (int64, error) {
	pageURL := strings.ReplaceAll(s.pageURL, codePlaceholder, url.QueryEscape(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return 0, errors.Newf("%w: %v", errors.ErrPriceHTTP, err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, errors.Newf("%w: %v", errors.ErrPriceHTTP, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, errors.Wrapf(errors.ErrPriceHTTP, "unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(decodeBody(resp.Body, resp.Header.Get("Content-Type")))
	if err != nil {
		return 0, errors.Newf("%w: %v", errors.ErrPriceMalformed, err)
	}

	return ParsePrice(doc, s.selector)
}

// ParsePrice reads the first node matching selector as an integer price.
// Thousands separators and surrounding whitespace are ignored.
func ParsePrice(doc *goquery.Document, selector string) (int64, error) {
	node := doc.Find(selector).First()
	if node.Length() == 0 {
		return 0, errors.Wrapf(errors.ErrPriceNodeMissing, "selector %q", selector)
	}

	text := strings.TrimSpace(strings.ReplaceAll(node.Text(), ",", ""))
	price, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrPriceMalformed, "text %q", text)
	}

	return price, nil
}

// decodeBody converts the body to UTF-8 using the charset from Content-Type.
// Unknown or absent charsets pass the body through unchanged.
func decodeBody(body io.Reader, contentType string) io.Reader {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body
	}

	name := params["charset"]
	if name == "" {
		return body
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return body
	}

	return enc.NewDecoder().Reader(body)
}

func fetchStatus(err error) string {
	switch {
	case errors.Is(err, errors.ErrPriceNodeMissing):
		return "missing"
	case errors.Is(err, errors.ErrPriceMalformed):
		return "malformed"
	default:
		return "http_error"
	}
}
