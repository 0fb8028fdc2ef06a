package analytics

import "strings"

// Category is a coarse classification of a website.
type Category string

const (
	CategoryWork          Category = "work"
	CategoryLearning      Category = "learning"
	CategorySocial        Category = "social"
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategoryNews          Category = "news"
	CategoryOther         Category = "other"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryWork,
	CategoryLearning,
	CategorySocial,
	CategoryEntertainment,
	CategoryShopping,
	CategoryNews,
	CategoryOther,
}

// ParseCategory returns the category named by s, or false if s is not one.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return CategoryOther, false
}

// keyword rules are checked in order; the first match wins
var categoryRules = []struct {
	category Category
	keywords []string
}{
	{CategoryWork, []string{"github", "stackoverflow", "docs", "aws", "google.com/cloud", "notion", "trello", "asana", "slack"}},
	{CategorySocial, []string{"facebook", "twitter", "instagram", "reddit", "tiktok", "linkedin"}},
	{CategoryEntertainment, []string{"youtube", "netflix", "twitch", "spotify", "hulu"}},
	{CategoryShopping, []string{"amazon", "ebay", "shopify", "etsy"}},
	{CategoryNews, []string{"news", "bbc", "cnn", "nytimes", "reuters"}},
}

// Categorize classifies a domain by keyword. It is the fallback used when no
// AI provider is available.
func Categorize(domain string) Category {
	d := strings.ToLower(domain)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(d, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}
