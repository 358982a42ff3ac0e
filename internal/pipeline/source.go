package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/ppiankov/needscore/internal/cache"
	"github.com/ppiankov/needscore/internal/model"
)

const sentenceSep = ". "

// ArticleSource loads articles from the news gateway's get_full endpoint
type ArticleSource struct {
	fetcher      *Fetcher
	baseURL      string
	dataSelect   string
	maxSentences int
	cache        cache.Cache
	logger       zerolog.Logger
}

// NewArticleSource creates a source. c may be nil to disable caching.
func NewArticleSource(fetcher *Fetcher, cfg model.SourceConfig, c cache.Cache, logger zerolog.Logger) *ArticleSource {
	return &ArticleSource{
		fetcher:      fetcher,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		dataSelect:   cfg.DataSelect,
		maxSentences: cfg.MaxSentences,
		cache:        c,
		logger:       logger,
	}
}

// gatewayResponse is the get_full envelope
type gatewayResponse struct {
	Data *gatewayArticle `json:"data"`
}

type gatewayArticle struct {
	ArticleID   json.RawMessage `json:"article_id"`
	Title       string          `json:"title"`
	Lead        string          `json:"lead"`
	Content     string          `json:"content"`
	ShareURL    string          `json:"share_url"`
	PublishTime json.RawMessage `json:"publish_time"`
}

// ArticleURL returns the gateway URL for id
func (s *ArticleSource) ArticleURL(id int64) string {
	q := url.Values{}
	q.Set("article_id", strconv.FormatInt(id, 10))
	q.Set("data_select", s.dataSelect)
	return s.baseURL + "/ar/get_full?" + q.Encode()
}

// Article returns the article with the given id, from cache when possible
func (s *ArticleSource) Article(ctx context.Context, id int64) (*model.Article, error) {
	key := cache.ArticleKey(id)

	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			article, err := decodeArticle(id, data)
			if err == nil {
				s.logger.Debug().Int64("article_id", id).Msg("article cache hit")
				return article, nil
			}
			_ = s.cache.Delete(key)
		}
	}

	result, err := s.fetcher.FetchWithRetry(ctx, s.ArticleURL(id), "application/json")
	if err != nil {
		return nil, fmt.Errorf("article %d: %w", id, err)
	}

	article, err := decodeArticle(id, result.Body)
	if err != nil {
		return nil, fmt.Errorf("article %d: %w", id, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(key, result.Body, 0); err != nil {
			s.logger.Warn().Err(err).Int64("article_id", id).Msg("cache write failed")
		}
	}

	return article, nil
}

// InputText fetches article id and builds the annotator input
func (s *ArticleSource) InputText(ctx context.Context, id int64) (string, *model.Article, error) {
	article, err := s.Article(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return BuildInputText(article, s.maxSentences), article, nil
}

func decodeArticle(id int64, data []byte) (*model.Article, error) {
	var resp gatewayResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	if resp.Data == nil || resp.Data.Title == "" {
		return nil, fmt.Errorf("gateway response has no article data")
	}

	article := &model.Article{
		ID:       id,
		Title:    strings.TrimSpace(resp.Data.Title),
		Lead:     StripHTML(resp.Data.Lead),
		Content:  StripHTML(resp.Data.Content),
		ShareURL: resp.Data.ShareURL,
	}
	if len(resp.Data.ArticleID) > 0 {
		if got, err := model.CoerceInt(resp.Data.ArticleID); err == nil && got != id {
			return nil, fmt.Errorf("gateway returned article %d", got)
		}
	}
	if len(resp.Data.PublishTime) > 0 {
		if ts, err := model.CoerceInt(resp.Data.PublishTime); err == nil {
			article.PublishTime = ts
		}
	}
	return article, nil
}

// BuildInputText joins title, lead and the first maxSentences sentences of
// the content with blank lines. maxSentences <= 0 keeps the whole content.
func BuildInputText(a *model.Article, maxSentences int) string {
	return a.Title + "\n\n" + a.Lead + "\n\n" + FirstSentences(a.Content, maxSentences)
}

// FirstSentences keeps the first n ". "-separated sentences of text
func FirstSentences(text string, n int) string {
	if n <= 0 {
		return text
	}
	parts := strings.SplitN(text, sentenceSep, n+1)
	if len(parts) > n {
		parts = parts[:n]
	}
	return strings.Join(parts, sentenceSep)
}

// StripHTML returns the text content of an HTML fragment with entities decoded
func StripHTML(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var buf bytes.Buffer
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way the text so far is the result
			return strings.TrimSpace(buf.String())
		case html.TextToken:
			buf.Write(z.Text())
		}
	}
}
