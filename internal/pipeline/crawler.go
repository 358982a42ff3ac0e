package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/ppiankov/needscore/internal/util"
)

// Crawler lists article links on a category page
type Crawler struct {
	fetcher *Fetcher
	robots  *util.RobotsChecker
	logger  zerolog.Logger
}

// NewCrawler creates a crawler. robots may be nil to skip robots.txt checks.
func NewCrawler(fetcher *Fetcher, robots *util.RobotsChecker, logger zerolog.Logger) *Crawler {
	return &Crawler{fetcher: fetcher, robots: robots, logger: logger}
}

// Links returns the absolute article links on pageURL in page order
func (c *Crawler) Links(ctx context.Context, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	if c.robots != nil {
		if err := c.robots.Check(ctx, pageURL); err != nil {
			return nil, err
		}
	}

	result, err := c.fetcher.FetchWithRetry(ctx, pageURL, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}
	if final, err := url.Parse(result.FinalURL); err == nil {
		base = final
	}

	links, err := ExtractLinks(bytes.NewReader(result.Body), base)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("url", pageURL).Int("links", len(links)).Msg("category page parsed")
	return links, nil
}

// ArticleIDs returns up to limit article ids linked from pageURL.
// Links without an id are skipped. limit <= 0 returns all.
func (c *Crawler) ArticleIDs(ctx context.Context, pageURL string, limit int) ([]int64, error) {
	links, err := c.Links(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var ids []int64
	for _, link := range links {
		id, err := ArticleID(link)
		if err != nil {
			c.logger.Debug().Str("link", link).Msg("no article id")
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		if limit > 0 && len(ids) == limit {
			break
		}
	}
	return ids, nil
}

// ExtractLinks finds anchors with a data-medium="Item-…" attribute and a
// data-thumb attribute, de-duplicated in document order. Relative hrefs
// are resolved against base.
func ExtractLinks(r io.Reader, base *url.URL) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	seen := make(map[string]bool)
	var links []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href, ok := itemHref(n); ok {
				if base != nil {
					if ref, err := base.Parse(href); err == nil {
						href = ref.String()
					}
				}
				if !seen[href] {
					seen[href] = true
					links = append(links, href)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return links, nil
}

func itemHref(n *html.Node) (string, bool) {
	var href string
	var item, thumb bool
	for _, attr := range n.Attr {
		switch attr.Key {
		case "href":
			href = strings.TrimSpace(attr.Val)
		case "data-medium":
			item = strings.HasPrefix(attr.Val, "Item-")
		case "data-thumb":
			thumb = true
		}
	}
	return href, item && thumb && href != ""
}

// ArticleID extracts the trailing numeric id from an article URL such as
// https://vnexpress.net/some-slug-4817234.html
func ArticleID(link string) (int64, error) {
	u, err := url.Parse(link)
	if err != nil {
		return 0, fmt.Errorf("parse link: %w", err)
	}

	name := strings.TrimSuffix(path.Base(u.Path), ".html")
	idx := strings.LastIndex(name, "-")
	if idx < 0 || idx == len(name)-1 {
		return 0, fmt.Errorf("no article id in %q", link)
	}

	id, err := strconv.ParseInt(name[idx+1:], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("no article id in %q", link)
	}
	return id, nil
}
