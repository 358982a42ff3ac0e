package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ppiankov/needscore/internal/util"
)

const categoryPage = `<html><body>
<article><h3><a data-medium="Item-1" data-thumb="1" href="/ha-noi-mo-tuyen-buyt-4817234.html">A</a></h3></article>
<article><a data-medium="Item-1" data-thumb="1" href="/ha-noi-mo-tuyen-buyt-4817234.html">A again</a></article>
<article><a data-medium="Item-2" href="/no-thumb-4817000.html">no thumb</a></article>
<article><a data-medium="Menu-1" data-thumb="1" href="/menu-4816000.html">menu</a></article>
<article><a data-medium="Item-3" data-thumb="1" href="https://vnexpress.net/gia-vang-4817301.html">B</a></article>
<article><a data-medium="Item-4" data-thumb="1" href="/tag/giao-thong">tag page</a></article>
<article><a data-medium="Item-5" data-thumb="1" href="">empty</a></article>
</body></html>`

func TestExtractLinks(t *testing.T) {
	base, _ := url.Parse("https://vnexpress.net/thoi-su")

	links, err := ExtractLinks(strings.NewReader(categoryPage), base)
	if err != nil {
		t.Fatalf("ExtractLinks failed: %v", err)
	}

	want := []string{
		"https://vnexpress.net/ha-noi-mo-tuyen-buyt-4817234.html",
		"https://vnexpress.net/gia-vang-4817301.html",
		"https://vnexpress.net/tag/giao-thong",
	}
	if len(links) != len(want) {
		t.Fatalf("Expected %v, got %v", want, links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("link %d: expected %s, got %s", i, want[i], links[i])
		}
	}
}

func TestArticleID(t *testing.T) {
	tests := []struct {
		link string
		want int64
		ok   bool
	}{
		{"https://vnexpress.net/ha-noi-mo-tuyen-buyt-4817234.html", 4817234, true},
		{"/gia-vang-4817301.html?utm=x", 4817301, true},
		{"https://vnexpress.net/tag/giao-thong", 0, false},
		{"https://vnexpress.net/slug-.html", 0, false},
		{"https://vnexpress.net/", 0, false},
	}

	for _, tt := range tests {
		got, err := ArticleID(tt.link)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ArticleID(%q) = %d, %v; want %d", tt.link, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Errorf("ArticleID(%q) expected error, got %d", tt.link, got)
		}
	}
}

func TestCrawler_ArticleIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
		case "/thoi-su":
			_, _ = fmt.Fprint(w, categoryPage)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "needscore/0.1", 1<<20)
	robots := util.NewRobotsChecker(server.Client(), "needscore/0.1", zerolog.Nop())
	crawler := NewCrawler(fetcher, robots, zerolog.Nop())

	ids, err := crawler.ArticleIDs(context.Background(), server.URL+"/thoi-su", 0)
	if err != nil {
		t.Fatalf("ArticleIDs failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != 4817234 || ids[1] != 4817301 {
		t.Errorf("Unexpected ids %v", ids)
	}

	limited, err := crawler.ArticleIDs(context.Background(), server.URL+"/thoi-su", 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("Expected one id with limit 1, got %v (%v)", limited, err)
	}

	_, err = crawler.Links(context.Background(), server.URL+"/private/list")
	if !errors.Is(err, util.ErrDisallowed) {
		t.Errorf("Expected robots.txt to block /private, got %v", err)
	}
}
