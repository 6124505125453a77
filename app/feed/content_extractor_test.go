package feed

import (
	"errors"
	"strings"
	"testing"
)

const articlePage = `
	<!DOCTYPE html>
	<html>
	<head>
		<title>Test Article</title>
		<script>console.log("trackingCode");</script>
		<style>body { font-family: sans-serif; }</style>
	</head>
	<body>
		<header>
			<h1>Site Header</h1>
			<nav>Navigation</nav>
		</header>
		<main>
			<article>
				<h1>Main Article Title</h1>
				<p>This is the main content of the article. It contains several paragraphs of meaningful text that should be extracted by the readability algorithm.</p>
				<p>This is another paragraph with more content. The readability algorithm should identify this as the main content area and extract it properly.</p>
				<p>Here is some more substantial content to ensure we meet the character threshold. This paragraph adds more context and information that would be valuable to readers.</p>
			</article>
		</main>
		<footer>
			<p>Copyright 2024</p>
		</footer>
	</body>
	</html>
	`

func TestContentExtractor_ValidHTML(t *testing.T) {
	extractor := NewContentExtractor()

	result, err := extractor.Run([]byte(articlePage), "https://example.com/news/story")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(result, "main content of the article") {
		t.Errorf("Expected extracted content to contain main article text")
	}

	if strings.Contains(result, "<p>") {
		t.Errorf("Expected plain text, got markup: %s", result)
	}

	if strings.Contains(result, "trackingCode") {
		t.Errorf("Expected extracted content to exclude script content")
	}

	if strings.Contains(result, "font-family") {
		t.Errorf("Expected extracted content to exclude style content")
	}
}

func TestContentExtractor_NoPageURL(t *testing.T) {
	extractor := NewContentExtractor()

	result, err := extractor.Run([]byte(articlePage), "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result == "" {
		t.Errorf("Expected non-empty result")
	}
}

func TestContentExtractor_EmptyData(t *testing.T) {
	extractor := NewContentExtractor()

	for _, data := range [][]byte{nil, {}} {
		result, err := extractor.Run(data, "https://example.com")
		if !errors.Is(err, ErrParse) {
			t.Errorf("Expected ErrParse for empty data, got: %v", err)
		}
		if result != "" {
			t.Errorf("Expected empty result for empty data, got %q", result)
		}
	}
}

func TestContentExtractor_InvalidPageURL(t *testing.T) {
	extractor := NewContentExtractor()

	_, err := extractor.Run([]byte(articlePage), "://bad url")
	if !errors.Is(err, ErrParse) {
		t.Errorf("Expected ErrParse for invalid page URL, got: %v", err)
	}
}
