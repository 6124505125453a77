// Package analysis derives category, sentiment, keywords and reading time
// from normalized article text. Every function is pure and deterministic.
//
// Matching is plain substring matching on case-folded text, so "warrior"
// counts as "war" and "said" counts as "ai".
package analysis

import (
	"math"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	wordsPerMinute = 200
	maxKeywords    = 10
	minKeywordLen  = 4
)

var (
	positiveWords = []string{"good", "great", "excellent", "amazing", "breakthrough", "success", "win"}
	negativeWords = []string{"bad", "terrible", "crisis", "fail", "death", "war", "attack", "disaster"}

	stopWords = map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
		"to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "is": {}, "are": {},
		"was": {}, "were": {}, "be": {}, "been": {}, "have": {}, "has": {}, "had": {},
	}

	nonWord = regexp.MustCompile(`\W+`)
)

type categoryRule struct {
	category Category
	terms    []string
}

// Rules are checked top to bottom; "AI stocks" must land in AI, not Finance.
var categoryRules = []categoryRule{
	{CategoryAI, []string{"ai", "artificial intelligence", "machine learning", "chatgpt"}},
	{CategoryTech, []string{"tech", "software"}},
	{CategoryFinance, []string{"stock", "market", "crypto", "economy", "bitcoin"}},
	{CategoryWeather, []string{"climate", "weather", "storm"}},
	{CategoryWorld, []string{"war", "military"}},
	{CategoryScience, []string{"science", "space", "nasa"}},
}

// fold lower-cases s. A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Lower(language.Und).String(s)
}

func EstimateReadingTime(text string) int {
	words := len(strings.Fields(text))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	return max(minutes, 1)
}

// AnalyzeSentiment counts how many lexicon words occur in text. Each word
// counts once no matter how often it appears.
func AnalyzeSentiment(text string) Sentiment {
	lower := fold(text)
	positive := countHits(lower, positiveWords)
	negative := countHits(lower, negativeWords)

	switch {
	case positive > negative:
		return SentimentPositive
	case negative > positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func countHits(text string, words []string) int {
	hits := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			hits++
		}
	}
	return hits
}

func InferCategory(text string) Category {
	lower := fold(text)
	for _, rule := range categoryRules {
		for _, term := range rule.terms {
			if strings.Contains(lower, term) {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}

// ExtractKeywords returns up to ten tokens ordered by descending frequency.
// Tokens with equal counts keep the order of their first occurrence.
func ExtractKeywords(text string) []string {
	counts := make(map[string]int)
	var order []string

	for _, token := range nonWord.Split(fold(text), -1) {
		if len(token) < minKeywordLen {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		if counts[token] == 0 {
			order = append(order, token)
		}
		counts[token]++
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	if order == nil {
		order = []string{}
	}
	return order
}

// Analyze runs every heuristic the way the pipeline needs them: sentiment,
// category and keywords look at title and description together, reading
// time only at the description.
func Analyze(title, description string) Result {
	combined := title + " " + description
	return Result{
		Category:    InferCategory(combined),
		Sentiment:   AnalyzeSentiment(combined),
		Keywords:    ExtractKeywords(combined),
		ReadingTime: EstimateReadingTime(description),
	}
}
