package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"transactive-sim/internal/generator"
)

var curveParseRatedCapacity float64

var curveParseCmd = &cobra.Command{
	Use:   "curve-parse [curve text]",
	Short: "Parse a generator supply-curve string and print its cumulative points and incremental bid segments",
	Args:  cobra.ExactArgs(1),
	RunE:  runCurveParse,
}

func init() {
	curveParseCmd.Flags().Float64Var(&curveParseRatedCapacity, "rated-capacity", 0, "rated capacity; an implicit tail point is appended up to this value")
}

func runCurveParse(cmd *cobra.Command, args []string) error {
	points, err := generator.ParseCurve(args[0], curveParseRatedCapacity)
	if err != nil {
		return fmt.Errorf("parse curve: %w", err)
	}

	fmt.Println("cumulative points:")
	for _, p := range points {
		fmt.Printf("  price=%.4f quantity=%.4f\n", p.Price, p.Quantity)
	}

	fmt.Println("incremental bid segments:")
	for _, s := range generator.Segments(points) {
		fmt.Printf("  price=%.4f quantity=%.4f\n", s.Price, s.Quantity)
	}
	return nil
}
