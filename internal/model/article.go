package model

// Article is a news article fetched from the gateway, reduced to the
// fields the annotator needs
type Article struct {
	ID          int64  `json:"article_id"`
	Title       string `json:"title"`
	Lead        string `json:"lead"`
	Content     string `json:"content"`
	ShareURL    string `json:"share_url,omitempty"`
	PublishTime int64  `json:"publish_time,omitempty"`
}

// Annotation is one model-produced annotation ready to be written into a
// predictions dataset
type Annotation struct {
	ArticleID   int64    `json:"article_id"`
	Title       string   `json:"title,omitempty"`
	URL         string   `json:"url,omitempty"`
	Response    Response `json:"response"`
	RawResponse string   `json:"raw_response,omitempty"`
}
