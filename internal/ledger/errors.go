package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorKind classifies a rejected trade request.
type ErrorKind string

const (
	InsufficientFunds  ErrorKind = "insufficient_funds"
	InsufficientShares ErrorKind = "insufficient_shares"
)

// TradeError reports a trade rejected by a balance or holdings check. The
// account is left untouched when one is returned.
type TradeError struct {
	Kind      ErrorKind
	Ticker    string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *TradeError) Error() string {
	switch e.Kind {
	case InsufficientFunds:
		return fmt.Sprintf("insufficient funds for %s: need %s, have %s",
			e.Ticker, e.Requested.StringFixed(2), e.Available.StringFixed(2))
	case InsufficientShares:
		return fmt.Sprintf("insufficient shares of %s: want to sell %s, hold %s",
			e.Ticker, e.Requested.String(), e.Available.String())
	}
	return fmt.Sprintf("trade rejected: %s", e.Kind)
}

// IsTradeError reports whether err is a rejection of the given kind.
func IsTradeError(err error, kind ErrorKind) bool {
	var te *TradeError
	return errors.As(err, &te) && te.Kind == kind
}
