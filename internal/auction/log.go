package auction

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"transactive-sim/internal/curve"
	"transactive-sim/pkg/types"
)

// TransactionLogger writes one CSV row per clearing pass: the published
// frame outcome. Sorted curve bodies are dumped separately by CurveLogger.
type TransactionLogger struct {
	w       *csv.Writer
	wrote0  bool
}

// NewTransactionLogger wraps w as a CSV transaction log.
func NewTransactionLogger(w io.Writer) *TransactionLogger {
	return &TransactionLogger{w: csv.NewWriter(w)}
}

func (t *TransactionLogger) header() []string {
	return []string{"market_id", "start_time", "clearing_type", "clearing_price", "clearing_quantity", "seller_total", "buyer_total"}
}

// Write appends one frame as a CSV row and flushes.
func (t *TransactionLogger) Write(f types.MarketFrame) error {
	if !t.wrote0 {
		if err := t.w.Write(t.header()); err != nil {
			return err
		}
		t.wrote0 = true
	}
	row := []string{
		strconv.FormatInt(f.MarketID, 10),
		f.StartTime.Format("2006-01-02 15:04:05"),
		f.ClearingType.String(),
		strconv.FormatFloat(f.ClearingPrice, 'f', 6, 64),
		strconv.FormatFloat(f.ClearingQuantity, 'f', 6, 64),
		strconv.FormatFloat(f.SellerTotal, 'f', 6, 64),
		strconv.FormatFloat(f.BuyerTotal, 'f', 6, 64),
	}
	if err := t.w.Write(row); err != nil {
		return err
	}
	t.w.Flush()
	return t.w.Error()
}

// CurveLogger dumps the sorted curve bodies plus the subtotal annotation
// lines the original printed under verbose logging: responsive/
// unresponsive buy and sell subtotals bracketing the sorted bid list.
type CurveLogger struct {
	w io.Writer
}

// NewCurveLogger wraps w as a curve dump log.
func NewCurveLogger(w io.Writer) *CurveLogger {
	return &CurveLogger{w: w}
}

// Dump writes the current (already-sorted) ask and offer curves with
// responsive/unresponsive subtotal annotations.
func (c *CurveLogger) Dump(marketID int64, asks, offers *curve.Curve) error {
	fmt.Fprintf(c.w, "== market %d curves ==\n", marketID)
	fmt.Fprintf(c.w, "sell: unresponsive=%.4f responsive=%.4f\n", asks.TotalOn(), asks.TotalOff())
	for i := 0; i < asks.Count(); i++ {
		b := asks.At(i)
		fmt.Fprintf(c.w, "  sell %.4f @ %.4f\n", b.Quantity, b.Price)
	}
	fmt.Fprintf(c.w, "buy: unresponsive=%.4f responsive=%.4f\n", offers.TotalOn(), offers.TotalOff())
	for i := 0; i < offers.Count(); i++ {
		b := offers.At(i)
		fmt.Fprintf(c.w, "  buy %.4f @ %.4f\n", b.Quantity, b.Price)
	}
	return nil
}
