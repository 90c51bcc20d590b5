package auction

import (
	"time"

	"transactive-sim/pkg/types"
)

// clearLocked runs the clearing algorithm against the current curves.
// Callers must hold m.mu.
func (m *Market) clearLocked(now time.Time) (types.MarketFrame, error) {
	if m.refEstimator != nil {
		if bid, ok := m.refEstimator.Estimate(m.asks, m.offers); ok {
			m.offers.Submit(bid)
		}
	}
	var capRefQty float64
	if m.capBidder != nil {
		if bid, ok := m.capBidder.Bid(); ok {
			m.offers.Submit(bid)
			capRefQty = bid.Quantity
		}
	}

	m.asks.Sort(false)   // sellers ascending: cheapest first
	m.offers.Sort(true)  // buyers descending: most willing to pay first

	var frame types.MarketFrame
	frame.MarketID = m.marketID
	frame.StartTime = now.Add(m.cfg.Latency)
	frame.EndTime = frame.StartTime.Add(m.cfg.Period)

	switch m.cfg.Mode {
	case types.ModeSellersOnly:
		m.clearSellersOnly(&frame)
	case types.ModeBuyersOnly:
		m.clearBuyersOnly(&frame)
	case types.ModeFixedSeller:
		m.asks.Submit(types.Bid{Price: m.cfg.FixedPrice, Quantity: m.cfg.FixedQuantity, State: types.Unknown})
		m.asks.Sort(false)
		m.clearDoubleSided(&frame)
	case types.ModeFixedBuyer:
		m.offers.Submit(types.Bid{Price: m.cfg.FixedPrice, Quantity: m.cfg.FixedQuantity, State: types.Unknown})
		m.offers.Sort(true)
		m.clearDoubleSided(&frame)
	default:
		m.clearDoubleSided(&frame)
	}

	if frame.ClearingPrice > m.cfg.PriceCap {
		frame.ClearingPrice = m.cfg.PriceCap
	} else if frame.ClearingPrice < -m.cfg.PriceCap {
		frame.ClearingPrice = -m.cfg.PriceCap
	}

	frame.SellerTotal = m.asks.Total()
	frame.BuyerTotal = m.offers.Total()
	frame.SellerMinPrice = m.asks.MinPrice()
	frame.BuyerTotalUnrep = m.offers.TotalOn()
	frame.CapRefUnrep = capRefQty

	return frame, nil
}

// clearSellersOnly accumulates the cheapest sellers until FixedQuantity is
// met; CT_SELLER if the last accepted seller overshoots, CT_EXACT on an
// exact match, CT_FAILURE with an offset-adjusted price on shortfall.
func (m *Market) clearSellersOnly(frame *types.MarketFrame) {
	var qty float64
	var price float64
	n := m.asks.Count()
	for i := 0; i < n; i++ {
		b := m.asks.At(i)
		qty += b.Quantity
		price = b.Price
		if qty >= m.cfg.FixedQuantity {
			if qty > m.cfg.FixedQuantity {
				frame.ClearingType = types.CTSeller
			} else {
				frame.ClearingType = types.CTExact
			}
			frame.ClearingPrice = price
			frame.ClearingQuantity = m.cfg.FixedQuantity
			return
		}
	}
	frame.ClearingType = types.CTFailure
	frame.ClearingPrice = price + m.cfg.BidOffset
	frame.ClearingQuantity = qty
}

// clearBuyersOnly is the symmetric counterpart over offers.
func (m *Market) clearBuyersOnly(frame *types.MarketFrame) {
	var qty float64
	var price float64
	n := m.offers.Count()
	for i := 0; i < n; i++ {
		b := m.offers.At(i)
		qty += b.Quantity
		price = b.Price
		if qty >= m.cfg.FixedQuantity {
			if qty > m.cfg.FixedQuantity {
				frame.ClearingType = types.CTBuyer
			} else {
				frame.ClearingType = types.CTExact
			}
			frame.ClearingPrice = price
			frame.ClearingQuantity = m.cfg.FixedQuantity
			return
		}
	}
	frame.ClearingType = types.CTFailure
	frame.ClearingPrice = price - m.cfg.BidOffset
	frame.ClearingQuantity = qty
}

// clearDoubleSided walks the sorted ask and offer curves from their
// cheapest/highest ends, accumulating quantity while buy price >= sell
// price, and resolves the clearing price/type/marginal share from where
// the walk stops.
func (m *Market) clearDoubleSided(frame *types.MarketFrame) {
	nAsks, nOffers := m.asks.Count(), m.offers.Count()

	if nAsks == 0 && nOffers == 0 {
		frame.ClearingType = types.CTNull
		return
	}
	if nAsks == 0 {
		frame.ClearingType = types.CTPrice
		frame.ClearingPrice = m.offers.At(0).Price - m.cfg.BidOffset
		return
	}
	if nOffers == 0 {
		frame.ClearingType = types.CTPrice
		frame.ClearingPrice = m.asks.At(0).Price + m.cfg.BidOffset
		return
	}

	var i, j int
	var buyQty, sellQty float64
	var a, b float64
	lastType := types.CTNull

	for i < nAsks && j < nOffers {
		sell := m.asks.At(i)
		buy := m.offers.At(j)
		if buy.Price < sell.Price {
			break
		}
		buyAfter := buyQty + buy.Quantity
		sellAfter := sellQty + sell.Quantity
		switch {
		case buyAfter > sellAfter:
			lastType = types.CTBuyer
			a, b = buy.Price, buy.Price
			sellQty = sellAfter
			i++
		case buyAfter < sellAfter:
			lastType = types.CTSeller
			a, b = sell.Price, sell.Price
			buyQty = buyAfter
			j++
		default:
			lastType = types.CTExact // placeholder, resolved below
			a, b = buy.Price, sell.Price
			buyQty, sellQty = buyAfter, sellAfter
			i++
			j++
		}
	}

	switch lastType {
	case types.CTBuyer:
		frame.ClearingType = types.CTBuyer
		frame.ClearingPrice = a
		frame.ClearingQuantity = sellQty
		computeMarginalBuyer(frame, m, j, sellQty)
	case types.CTSeller:
		frame.ClearingType = types.CTSeller
		frame.ClearingPrice = a
		frame.ClearingQuantity = buyQty
		computeMarginalSeller(frame, m, i, buyQty)
	case types.CTExact:
		resolveExactMatch(frame, a, b, buyQty, m.cfg)
	default:
		frame.ClearingType = types.CTNull
	}

	if frame.ClearingQuantity == 0 && frame.ClearingType != types.CTNull {
		frame.ClearingType = types.CTNull
		frame.ClearingPrice = m.cfg.ClearingScalar*m.asks.At(0).Price +
			(1-m.cfg.ClearingScalar)*m.offers.At(0).Price
	}
}

// resolveExactMatch handles the "check" branch of the original algorithm:
// the walk stopped because the buy and sell quantities matched exactly at
// this step. Whether that's CT_EXACT or CT_PRICE depends on whether the
// two sides landed on the same price.
func resolveExactMatch(frame *types.MarketFrame, a, b, qty float64, cfg Config) {
	if a == b {
		frame.ClearingType = types.CTExact
		frame.ClearingPrice = a
		frame.ClearingQuantity = qty
		return
	}
	frame.ClearingType = types.CTPrice
	frame.ClearingQuantity = qty
	switch {
	case a == cfg.PriceCap:
		frame.ClearingPrice = b + cfg.BidOffset
	case b == -cfg.PriceCap:
		frame.ClearingPrice = a - cfg.BidOffset
	default:
		frame.ClearingPrice = (a + b) / 2
	}
}

// computeMarginalBuyer computes the marginal share for a CT_BUYER
// (MARGINAL_BUYER) clear: the next buyer (at j, whose price is the
// clearing price) and any others at that same price are only partially
// needed to absorb the cleared supply quantity.
func computeMarginalBuyer(frame *types.MarketFrame, m *Market, j int, sellQty float64) {
	if j >= m.offers.Count() {
		frame.MarginalQuantity = 0
		frame.MarginalTotal = 0
		frame.MarginalFraction = 0
		return
	}
	marginalPrice := m.offers.At(j).Price
	var subtotal float64
	k := j
	for k < m.offers.Count() && m.offers.At(k).Price == marginalPrice {
		k++
	}
	for n := j; n < k; n++ {
		subtotal += m.offers.At(n).Quantity
	}
	needed := sellQty
	// subtract everything already accumulated strictly above marginalPrice
	for n := 0; n < j; n++ {
		needed -= m.offers.At(n).Quantity
	}
	frame.MarginalQuantity = needed
	frame.MarginalTotal = subtotal
	if subtotal != 0 {
		frame.MarginalFraction = needed / subtotal
	}
}

// computeMarginalSeller is the symmetric counterpart over asks for a
// CT_SELLER (MARGINAL_SELLER) clear.
func computeMarginalSeller(frame *types.MarketFrame, m *Market, i int, buyQty float64) {
	if i >= m.asks.Count() {
		frame.MarginalQuantity = 0
		frame.MarginalTotal = 0
		frame.MarginalFraction = 0
		return
	}
	marginalPrice := m.asks.At(i).Price
	var subtotal float64
	k := i
	for k < m.asks.Count() && m.asks.At(k).Price == marginalPrice {
		k++
	}
	for n := i; n < k; n++ {
		subtotal += m.asks.At(n).Quantity
	}
	needed := buyQty
	for n := 0; n < i; n++ {
		needed -= m.asks.At(n).Quantity
	}
	frame.MarginalQuantity = needed
	frame.MarginalTotal = subtotal
	if subtotal != 0 {
		frame.MarginalFraction = needed / subtotal
	}
}
