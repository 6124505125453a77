package analysis

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

type Category string

const (
	CategoryAI      Category = "AI"
	CategoryTech    Category = "Tech"
	CategoryFinance Category = "Finance"
	CategoryWeather Category = "Weather"
	CategoryWorld   Category = "World"
	CategoryScience Category = "Science"
	CategoryGeneral Category = "General"
)

// Categories lists every category in rule order, General last.
var Categories = []Category{
	CategoryAI,
	CategoryTech,
	CategoryFinance,
	CategoryWeather,
	CategoryWorld,
	CategoryScience,
	CategoryGeneral,
}

// ParseCategory matches name case-insensitively against the known categories.
func ParseCategory(name string) (Category, bool) {
	folded := fold(name)
	for _, c := range Categories {
		if fold(string(c)) == folded {
			return c, true
		}
	}
	return "", false
}

type Result struct {
	Category    Category
	Sentiment   Sentiment
	Keywords    []string
	ReadingTime int
}
