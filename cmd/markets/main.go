package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"crypto_dash/internal/domain"
	"crypto_dash/internal/infra"
	"crypto_dash/internal/market"
)

// One-shot market fetcher: prints the top-N coins and exits.
// Doubles as a live smoke test for the API client.
func main() {
	count := flag.Int("n", 20, "number of coins to print")
	category := flag.String("category", "all", "category key (all, meme-token, gaming, ...)")
	flag.Parse()

	n := *count
	if n < 1 || n > infra.MaxPageSize {
		n = 20
	}

	cat, err := domain.ParseCategory(*category)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	cfg := infra.DefaultConfig()
	client := market.NewClient(cfg, nil)

	coins, err := client.FetchByCategory(context.Background(), cat, n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-5s %-8s %-24s %14s %10s %18s\n", "#", "SYMBOL", "NAME", "PRICE", "24H%", "MARKET CAP")
	for _, c := range coins {
		fmt.Printf("%-5d %-8s %-24s %14s %9s%% %18s\n",
			c.Rank, c.Symbol, truncate(c.Name, 24),
			c.Price.StringFixed(4), c.ChangePct24h.StringFixed(2), c.MarketCap.StringFixed(0))
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
