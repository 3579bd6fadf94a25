// Package sizing turns top-of-book prices and free balances into a limit
// order intent. It performs no I/O.
package sizing

import "trading-agent/internal/types"

type Outcome int

const (
	Sized Outcome = iota
	TooSmall
)

func (o Outcome) String() string {
	if o == Sized {
		return "sized"
	}
	return "too_small"
}

type Params struct {
	Premium     float64 // fees plus margin, as a fraction of mid
	Trust       float64 // share of the free balance committed per order
	MinNotional float64 // in quote currency
}

// Quote holds both candidate orders for one book snapshot.
type Quote struct {
	Mid        float64
	PriceBuy   float64
	PriceSell  float64
	AmountBuy  float64
	AmountSell float64
}

func Compute(book types.TopOfBook, bal types.Balances, p Params) Quote {
	mid := (book.Bid + book.Ask) / 2
	q := Quote{
		Mid:        mid,
		PriceBuy:   mid * (1 - p.Premium),
		PriceSell:  mid * (1 + p.Premium),
		AmountSell: p.Trust * bal.BaseFree,
	}
	if q.PriceBuy > 0 {
		q.AmountBuy = p.Trust * bal.QuoteFree / q.PriceBuy
	}
	return q
}

// Intent picks the side's candidate order and checks it against MinNotional.
// The notional must strictly exceed the minimum.
func Intent(side types.Side, book types.TopOfBook, bal types.Balances, p Params) (types.OrderIntent, Outcome) {
	q := Compute(book, bal, p)
	in := types.OrderIntent{Side: side, Price: q.PriceSell, Amount: q.AmountSell}
	if side == types.Buy {
		in.Price, in.Amount = q.PriceBuy, q.AmountBuy
	}
	if in.Amount <= 0 || in.Notional() <= p.MinNotional {
		return in, TooSmall
	}
	return in, Sized
}
