package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"github.com/lysyi3m/newsflow/app/store"
)

// Channel describes the generated feed itself.
type Channel struct {
	Title       string
	Link        string
	Description string
	SelfLink    string

	// SourceURLs maps source names to their feed URLs. Items whose source
	// has no URL here get no <source> element.
	SourceURLs map[string]string
}

type Generator struct {
	version string
}

func NewGenerator(version string) *Generator {
	return &Generator{version: version}
}

// Run renders the snapshot articles, in stored order, as an RSS 2.0 document.
func (g *Generator) Run(channel Channel, snapshot *store.Snapshot) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", cmp.Or(channel.Title, "NewsFlow"), 4)
	g.writeElement(&buf, "link", channel.Link, 4)
	g.writeElement(&buf, "description", cmp.Or(channel.Description, "Aggregated news articles"), 4)

	if channel.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfLink)))
	}

	if collectedAt, err := time.Parse(time.RFC3339, snapshot.CollectedAt); err == nil {
		g.writeElement(&buf, "lastBuildDate", collectedAt.Format(time.RFC1123Z), 4)
	}
	g.writeElement(&buf, "generator", fmt.Sprintf("NewsFlow/%s", g.version), 4)

	for _, article := range snapshot.Articles {
		g.writeItem(&buf, article, channel.SourceURLs[article.Source])
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, article store.Article, sourceURL string) {
	buf.WriteString("    <item>\n")

	if article.ID != "" {
		buf.WriteString("      <guid isPermaLink=\"false\">")
		xml.EscapeText(buf, []byte(article.ID))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", article.Title, 6)
	g.writeElement(buf, "link", article.Link, 6)
	g.writeElement(buf, "description", cmp.Or(article.Summary, "No description available"), 6)

	if published, ok := article.PublishedTime(); ok {
		g.writeElement(buf, "pubDate", published.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "category", article.Category, 6)
	if article.Source != "" && sourceURL != "" {
		buf.WriteString("      <source url=\"")
		xml.EscapeText(buf, []byte(sourceURL))
		buf.WriteString("\">")
		xml.EscapeText(buf, []byte(article.Source))
		buf.WriteString("</source>\n")
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
