package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"

	"stockwatch/internal/adapters/config"
	"stockwatch/pkg/errors"
)

const quotePage = `<html><body>
<div class="rate_info">
  <p class="no_today">
    <em class="no_up"><span class="blind">%s</span></em>
  </p>
</div>
</body></html>`

func pageWithPrice(price string) string {
	return strings.Replace(quotePage, "%s", price, 1)
}

func newTestScraper(t *testing.T, handler http.HandlerFunc) *Scraper {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewScraper(config.PricingConfig{
		PageURL:   srv.URL + "/item/main.naver?code={code}",
		Selector:  "p.no_today span.blind",
		UserAgent: "Mozilla/5.0",
		Timeout:   2 * time.Second,
	})
}

func TestScraper_FetchPrice(t *testing.T) {
	var gotCode, gotUA string
	scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		gotCode = r.URL.Query().Get("code")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(pageWithPrice("70,500")))
	})

	price, ok := scraper.FetchPrice(context.Background(), "005930")

	require.True(t, ok)
	assert.Equal(t, int64(70500), price)
	assert.Equal(t, "005930", gotCode)
	assert.Equal(t, "Mozilla/5.0", gotUA)
}

func TestScraper_FetchPrice_EUCKR(t *testing.T) {
	body := `<html><head><title>삼성전자</title></head><body>` +
		`<p class="no_today"><span class="blind">1,234,000</span></p>` +
		`<p>현재가</p></body></html>`
	encoded, err := korean.EUCKR.NewEncoder().String(body)
	require.NoError(t, err)

	scraper := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html;charset=EUC-KR")
		_, _ = w.Write([]byte(encoded))
	})

	price, ok := scraper.FetchPrice(context.Background(), "005930")

	require.True(t, ok)
	assert.Equal(t, int64(1234000), price)
}

func TestScraper_FetchPrice_Absent(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "missing node",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html><body><p class="other">70,500</p></body></html>`))
			},
		},
		{
			name: "non numeric node",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(pageWithPrice("N/A")))
			},
		},
		{
			name: "empty node",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(pageWithPrice("")))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scraper := newTestScraper(t, tt.handler)

			price, ok := scraper.FetchPrice(context.Background(), "005930")

			assert.False(t, ok)
			assert.Zero(t, price)
		})
	}
}

func TestScraper_FetchPrice_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	unreachable := srv.URL
	srv.Close()

	scraper := NewScraper(config.PricingConfig{
		PageURL:  unreachable + "/?code={code}",
		Selector: "p.no_today span.blind",
		Timeout:  time.Second,
	})

	_, ok := scraper.FetchPrice(context.Background(), "005930")
	assert.False(t, ok)
}

func TestScraper_FetchPrice_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	scraper := NewScraper(config.PricingConfig{
		PageURL:  srv.URL + "/?code={code}",
		Selector: "p.no_today span.blind",
		Timeout:  100 * time.Millisecond,
	})

	start := time.Now()
	_, ok := scraper.FetchPrice(context.Background(), "005930")

	assert.False(t, ok)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		want    int64
		wantErr error
	}{
		{name: "thousands separators", html: pageWithPrice("70,500"), want: 70500},
		{name: "plain number", html: pageWithPrice("980"), want: 980},
		{name: "surrounding whitespace", html: pageWithPrice("\n  1,000\t"), want: 1000},
		{name: "first match wins", html: pageWithPrice("100") + pageWithPrice("200"), want: 100},
		{name: "missing node", html: `<p class="no_today"></p>`, wantErr: errors.ErrPriceNodeMissing},
		{name: "decimal text", html: pageWithPrice("70,500.5"), wantErr: errors.ErrPriceMalformed},
		{name: "letters", html: pageWithPrice("abc"), wantErr: errors.ErrPriceMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			require.NoError(t, err)

			got, err := ParsePrice(doc, "p.no_today span.blind")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeBody_UnknownCharsetPassesThrough(t *testing.T) {
	r := decodeBody(strings.NewReader("abc"), "text/html; charset=not-a-charset")
	doc, err := goquery.NewDocumentFromReader(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", doc.Text())
}
