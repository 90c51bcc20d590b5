package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"transactive-sim/internal/auction"
	"transactive-sim/pkg/types"
)

var (
	clearTestPriceCap  float64
	clearTestAsks      []string
	clearTestOffers    []string
)

var clearTestCmd = &cobra.Command{
	Use:   "clear-test",
	Short: "Clear one synthetic double-auction pass from CLI-supplied bids and print the resulting frame",
	Long: "clear-test builds a one-shot auction from --ask and --offer bids (each \"price,quantity\"), " +
		"runs a single clearing pass, and prints the resulting frame as JSON. Useful for sanity-checking " +
		"the clearing algorithm against a hand-built scenario without running the full simulator.",
	Args: cobra.NoArgs,
	RunE: runClearTest,
}

func init() {
	clearTestCmd.Flags().Float64Var(&clearTestPriceCap, "price-cap", 100, "market price cap")
	clearTestCmd.Flags().StringArrayVar(&clearTestAsks, "ask", nil, "ask bid as \"price,quantity\" (repeatable)")
	clearTestCmd.Flags().StringArrayVar(&clearTestOffers, "offer", nil, "offer (demand) bid as \"price,quantity\" (repeatable)")
}

func runClearTest(cmd *cobra.Command, args []string) error {
	m, err := auction.NewMarket(auction.Config{
		Name:           "clear-test",
		Period:         time.Minute,
		PriceCap:       clearTestPriceCap,
		ClearingScalar: 0.5,
		WarmupPeriods:  0,
	}, newLogger("warn", "text"))
	if err != nil {
		return fmt.Errorf("build market: %w", err)
	}

	for _, spec := range clearTestAsks {
		bid, err := parsePriceQuantity(spec)
		if err != nil {
			return fmt.Errorf("--ask %q: %w", spec, err)
		}
		if _, err := m.Submit(types.Sell, bid); err != nil {
			return fmt.Errorf("submit ask %q: %w", spec, err)
		}
	}
	for _, spec := range clearTestOffers {
		bid, err := parsePriceQuantity(spec)
		if err != nil {
			return fmt.Errorf("--offer %q: %w", spec, err)
		}
		if _, err := m.Submit(types.Buy, bid); err != nil {
			return fmt.Errorf("submit offer %q: %w", spec, err)
		}
	}

	frame, err := m.ClearMarket(time.Now())
	if err != nil {
		return fmt.Errorf("clear market: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(frame)
}

func parsePriceQuantity(spec string) (types.Bid, error) {
	var price, quantity float64
	if _, err := fmt.Sscanf(spec, "%f,%f", &price, &quantity); err != nil {
		return types.Bid{}, fmt.Errorf("expected \"price,quantity\": %w", err)
	}
	return types.Bid{Price: price, Quantity: quantity, State: types.Unknown}, nil
}
