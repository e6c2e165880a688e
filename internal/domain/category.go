package domain

import "fmt"

// Category partitions the coin universe. The set is closed: upstream-backed
// categories carry the upstream filter tag in their descriptor, while
// Watchlist and All are synthesized locally and never hit the network.
type Category string

const (
	CategoryWatchlist Category = "watchlist"
	CategoryAll       Category = "all"
	CategoryMeme      Category = "meme-token"
	CategoryAI        Category = "artificial-intelligence"
	CategoryGaming    Category = "gaming"
	CategoryDeFi      Category = "decentralized-finance-defi"
	CategoryLayer1    Category = "layer-1"
)

// CategoryDescriptor describes one category for display and fetching.
// APICategory is empty for locally synthesized categories.
type CategoryDescriptor struct {
	Label       string
	APICategory string
	Description string
}

var categoryDescriptors = map[Category]CategoryDescriptor{
	CategoryWatchlist: {
		Label:       "Watchlist",
		Description: "Coins you added to your watchlist",
	},
	CategoryAll: {
		Label:       "All Coins",
		Description: "Top cryptocurrencies by market cap",
	},
	CategoryMeme: {
		Label:       "Meme",
		APICategory: "meme-token",
		Description: "Meme-based cryptocurrencies",
	},
	CategoryAI: {
		Label:       "AI",
		APICategory: "artificial-intelligence",
		Description: "AI and machine learning tokens",
	},
	CategoryGaming: {
		Label:       "Gaming",
		APICategory: "gaming",
		Description: "Gaming and metaverse tokens",
	},
	CategoryDeFi: {
		Label:       "DeFi",
		APICategory: "decentralized-finance-defi",
		Description: "Decentralized finance protocols",
	},
	CategoryLayer1: {
		Label:       "Layer 1",
		APICategory: "layer-1",
		Description: "Layer 1 blockchain platforms",
	},
}

// categoryOrder is the stable display order.
var categoryOrder = []Category{
	CategoryWatchlist,
	CategoryAll,
	CategoryMeme,
	CategoryAI,
	CategoryGaming,
	CategoryDeFi,
	CategoryLayer1,
}

// Categories returns all categories in display order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Descriptor returns the descriptor for a known category.
func (c Category) Descriptor() (CategoryDescriptor, bool) {
	d, ok := categoryDescriptors[c]
	return d, ok
}

// IsSynthetic reports whether the category is resolved locally
// instead of via an upstream category filter.
func (c Category) IsSynthetic() bool {
	d, ok := categoryDescriptors[c]
	return ok && d.APICategory == ""
}

// Valid reports whether c is part of the closed category set.
func (c Category) Valid() bool {
	_, ok := categoryDescriptors[c]
	return ok
}

// ParseCategory converts a raw key into a Category, rejecting unknown keys.
func ParseCategory(raw string) (Category, error) {
	c := Category(raw)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}
