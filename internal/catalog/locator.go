// Package catalog discovers archive links on a remote catalog page.
package catalog

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"mdbharvest/internal/fetch"
)

// Archive describes one discovered archive. URL is always absolute.
type Archive struct {
	URL string
}

// Discovery is the result of scanning one catalog page.
type Discovery struct {
	Archives []Archive
	Skipped  int // anchors matching the selector but missing a usable href
}

// Locator extracts archive links from an HTML catalog page.
type Locator struct {
	client   *fetch.HTTPClient
	selector string
}

// NewLocator creates a locator using the given CSS selector.
func NewLocator(client *fetch.HTTPClient, selector string) *Locator {
	return &Locator{
		client:   client,
		selector: selector,
	}
}

// Discover fetches the catalog page once and returns every archive link
// matching the configured selector. Relative links are resolved against the
// catalog URL. A matching anchor without a usable href is logged and counted
// in Skipped rather than failing discovery; zero matches is a valid empty
// result, not an error.
func (l *Locator) Discover(ctx context.Context, catalogURL string) (*Discovery, error) {
	base, err := url.Parse(catalogURL)
	if err != nil {
		return nil, &FetchError{URL: catalogURL, Err: err}
	}

	resp, err := l.client.Get(ctx, catalogURL)
	if err != nil {
		return nil, &FetchError{URL: catalogURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: catalogURL, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &ParseError{URL: catalogURL, Err: err}
	}

	disc := &Discovery{}
	doc.Find(l.selector).Each(func(i int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			slog.Warn("catalog link missing href, skipping", "catalog", catalogURL, "index", i)
			disc.Skipped++
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			slog.Warn("catalog link unparsable, skipping", "href", href, "error", err)
			disc.Skipped++
			return
		}

		disc.Archives = append(disc.Archives, Archive{URL: base.ResolveReference(ref).String()})
	})

	return disc, nil
}
