package handler

import (
	"context"
	"encoding/xml"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmk-apps/blog/internal/model"
	"github.com/jmk-apps/blog/internal/post"
)

// feedItemLimit はRSSフィードに含める記事の最大件数。
const feedItemLimit = 20

// feedDescriptionLength はRSSの各記事の説明文の最大文字数。
const feedDescriptionLength = 300

// PostLister は記事一覧を取得するインターフェース。
type PostLister interface {
	ListPosts(ctx context.Context) ([]*model.PostSummary, error)
}

// FeedHandlerConfig はRSSフィードの設定。
type FeedHandlerConfig struct {
	BaseURL   string
	SiteTitle string
}

// FeedHandler は記事のRSS 2.0フィードを配信するHTTPハンドラー。
type FeedHandler struct {
	posts  PostLister
	config FeedHandlerConfig
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(posts PostLister, config FeedHandlerConfig) *FeedHandler {
	return &FeedHandler{posts: posts, config: config}
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	Author      string  `xml:"author,omitempty"`
	Description string  `xml:"description"`
	PubDate     string  `xml:"pubDate"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// Feed は新しい順に記事をRSS 2.0で返す。
// GET /feed.xml
func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListPosts(r.Context())
	if err != nil {
		slog.Error("failed to list posts for feed", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	doc := rssDocument{
		Version: "2.0",
		Channel: rssChannel{
			Title:       h.config.SiteTitle,
			Link:        h.config.BaseURL + "/",
			Description: "Latest posts from " + h.config.SiteTitle,
		},
	}

	// 一覧は作成順のため末尾から新しい順に詰める
	for i := len(posts) - 1; i >= 0 && len(doc.Channel.Items) < feedItemLimit; i-- {
		p := posts[i]
		link := h.config.BaseURL + "/post/" + p.ID
		doc.Channel.Items = append(doc.Channel.Items, rssItem{
			Title:       p.Title,
			Link:        link,
			GUID:        rssGUID{IsPermaLink: true, Value: link},
			Author:      p.AuthorName,
			Description: post.Excerpt(p.Body, feedDescriptionLength),
			PubDate:     p.CreatedAt.UTC().Format(time.RFC1123Z),
		})
	}
	if len(posts) > 0 {
		doc.Channel.LastBuildDate = posts[len(posts)-1].CreatedAt.UTC().Format(time.RFC1123Z)
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		slog.Error("failed to encode feed", slog.String("error", err.Error()))
	}
}
