package sizing

import (
	"math"
	"testing"

	"trading-agent/internal/types"
)

func TestComputeBuy(t *testing.T) {
	q := Compute(types.TopOfBook{Bid: 100, Ask: 102}, types.Balances{QuoteFree: 1000}, Params{Premium: 0.002, Trust: 0.1})

	if q.Mid != 101 {
		t.Errorf("Expected mid 101, got %f", q.Mid)
	}
	if math.Abs(q.PriceBuy-100.798) > 1e-9 {
		t.Errorf("Expected buy price 100.798, got %f", q.PriceBuy)
	}
	if math.Abs(q.AmountBuy-100.0/100.798) > 1e-12 {
		t.Errorf("Expected buy amount %f, got %f", 100.0/100.798, q.AmountBuy)
	}
	if math.Abs(q.AmountBuy-0.99208) > 1e-5 {
		t.Errorf("Expected buy amount ~0.99208, got %f", q.AmountBuy)
	}
}

func TestComputeSell(t *testing.T) {
	q := Compute(types.TopOfBook{Bid: 100, Ask: 102}, types.Balances{BaseFree: 2}, Params{Premium: 0.002, Trust: 0.5})

	if math.Abs(q.PriceSell-101.202) > 1e-9 {
		t.Errorf("Expected sell price 101.202, got %f", q.PriceSell)
	}
	if q.AmountSell != 1 {
		t.Errorf("Expected sell amount 1, got %f", q.AmountSell)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	book := types.TopOfBook{Bid: 3.1, Ask: 3.3}
	bal := types.Balances{BaseFree: 7, QuoteFree: 11}
	p := Params{Premium: 0.01, Trust: 0.3}
	if Compute(book, bal, p) != Compute(book, bal, p) {
		t.Error("Expected identical quotes for identical inputs")
	}
}

func TestIntentTooSmall(t *testing.T) {
	book := types.TopOfBook{Bid: 100, Ask: 102}
	bal := types.Balances{QuoteFree: 1000}

	in, out := Intent(types.Buy, book, bal, Params{Premium: 0.002, Trust: 0.1, MinNotional: 100.5})
	if out != TooSmall {
		t.Errorf("Expected TooSmall below the minimum, got %s", out)
	}
	if in.Side != types.Buy {
		t.Errorf("Expected buy side, got %s", in.Side)
	}

	_, out = Intent(types.Sell, types.TopOfBook{Bid: 100, Ask: 100}, types.Balances{BaseFree: 1}, Params{Trust: 1, MinNotional: 100})
	if out != TooSmall {
		t.Errorf("Expected TooSmall when notional equals the minimum, got %s", out)
	}

	_, out = Intent(types.Buy, book, bal, Params{Premium: 0.002, Trust: 0.1, MinNotional: 99})
	if out != Sized {
		t.Errorf("Expected Sized above the minimum, got %s", out)
	}
}

func TestIntentSellWithoutBaseBalance(t *testing.T) {
	_, out := Intent(types.Sell, types.TopOfBook{Bid: 100, Ask: 102}, types.Balances{QuoteFree: 1000}, Params{Trust: 1})
	if out != TooSmall {
		t.Errorf("Expected TooSmall with zero base balance, got %s", out)
	}
}
