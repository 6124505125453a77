package tasks

import (
	"github.com/google/uuid"

	"github.com/lysyi3m/newsflow/app/analysis"
	"github.com/lysyi3m/newsflow/app/feed"
	"github.com/lysyi3m/newsflow/app/store"
	"github.com/lysyi3m/newsflow/app/text"
)

const summaryLength = 200

var articleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("newsflow:article"))

// ArticleID derives the stable id of an article from its source and
// normalized title. The same pair always yields the same id.
func ArticleID(sourceName, title string) string {
	return uuid.NewSHA1(articleNamespace, []byte(sourceName+"\n"+title)).String()
}

// BuildArticle normalizes and enriches a parsed item. Titles are already
// decoded text and only get their whitespace collapsed; descriptions go
// through the full markup normalization. ok is false for a blank title.
func BuildArticle(src feed.Source, item feed.RawItem) (store.Article, bool) {
	title := text.Squash(item.Title)
	if title == "" {
		return store.Article{}, false
	}

	description := text.Normalize(item.Description)
	result := analysis.Analyze(title, description)

	return store.Article{
		ID:          ArticleID(src.Name, title),
		Title:       title,
		Link:        item.Link,
		Summary:     text.Truncate(description, summaryLength),
		Source:      src.Name,
		Published:   item.Published,
		Category:    string(result.Category),
		Sentiment:   string(result.Sentiment),
		ReadingTime: result.ReadingTime,
		Keywords:    result.Keywords,
	}, true
}
