package risk

import "fmt"

// LargeLossThresholdPct is the realized-loss percentage at or below which a
// round-trip raises a LargeLossError.
const LargeLossThresholdPct = -25.0

// InsufficientFundsError rejects a buy whose base-currency balance cannot
// cover the spend. Recoverable: the trade is skipped this tick, never retried
// within it.
type InsufficientFundsError struct {
	Coin     string
	Balance  float64
	Required float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("not enough %s to complete this trade: balance %.8f, required %.8f",
		e.Coin, e.Balance, e.Required)
}

// MixedTradeError flags a round-trip whose base currency changed between the
// buy and the sell. The trade record is kept; the P&L line is suppressed.
type MixedTradeError struct {
	BuyBase  string
	SellBase string
	Market   string
}

func (e *MixedTradeError) Error() string {
	return fmt.Sprintf("mixed trade for %s: bought with %s, sold into %s", e.Market, e.BuyBase, e.SellBase)
}

// LargeLossError signals a realized loss at or beyond the threshold. It is
// surfaced to the operator via alerting; execution continues.
type LargeLossError struct {
	PairID     string
	NetGain    float64
	NetGainPct float64
}

func (e *LargeLossError) Error() string {
	return fmt.Sprintf("%s net loss %.8f (%.2f%%)", e.PairID, e.NetGain, e.NetGainPct)
}

// BadMathError reports an accounting invariant violation, fatal to the
// analysis that detected it but not to the scheduler loop.
type BadMathError struct {
	Op     string
	Detail string
}

func (e *BadMathError) Error() string {
	return fmt.Sprintf("bad math in %s: %s", e.Op, e.Detail)
}
