package paper

import (
	"context"
	"testing"

	"trading-agent/internal/fail"
	"trading-agent/internal/sizing"
	"trading-agent/internal/types"
)

var btc = types.Pair{Base: "BTC", Quote: "USD"}

func newTestPaper() *Paper {
	return New(Params{StartPrice: 100, QuoteBalance: 1000, BaseBalance: 2, Volatility: 0.01, Seed: 42})
}

func TestFetchBarsSeededDeterministic(t *testing.T) {
	ctx := context.Background()
	tf := types.Timeframe{N: 1, Unit: 'm'}

	a, _ := newTestPaper().FetchBars(ctx, btc, tf, 20)
	b, _ := newTestPaper().FetchBars(ctx, btc, tf, 20)
	if len(a) != 20 {
		t.Fatalf("Expected 20 bars, got %d", len(a))
	}
	for i := range a {
		if a[i].Close != b[i].Close {
			t.Fatalf("Expected identical series for same seed, differ at %d", i)
		}
		if a[i].High < a[i].Low {
			t.Errorf("Bar %d has high %v below low %v", i, a[i].High, a[i].Low)
		}
	}
	if a[19].Ts-a[18].Ts != 60 {
		t.Errorf("Expected 60s spacing, got %d", a[19].Ts-a[18].Ts)
	}
}

func TestTopOfBookBracketsLastClose(t *testing.T) {
	pv := newTestPaper()
	book, err := pv.FetchTopOfBook(context.Background(), btc)
	if err != nil {
		t.Fatal(err)
	}
	if !(book.Bid < pv.last() && pv.last() < book.Ask) {
		t.Errorf("Expected bid < %v < ask, got %+v", pv.last(), book)
	}
}

func TestPlaceReservesAndCancelReleases(t *testing.T) {
	ctx := context.Background()
	pv := newTestPaper()

	o, err := pv.PlaceLimitOrder(ctx, btc, types.OrderIntent{Side: types.Buy, Price: 1, Amount: 100}, "c-1")
	if err != nil {
		t.Fatalf("Expected order placed, got %v", err)
	}
	bal, _ := pv.FetchBalance(ctx, btc)
	if bal.QuoteFree != 900 {
		t.Errorf("Expected quote 900 after reserve, got %v", bal.QuoteFree)
	}

	if err := pv.CancelOrder(ctx, btc, o.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	bal, _ = pv.FetchBalance(ctx, btc)
	if bal.QuoteFree != 1000 {
		t.Errorf("Expected quote 1000 after cancel, got %v", bal.QuoteFree)
	}
}

func TestPlaceRejections(t *testing.T) {
	ctx := context.Background()
	pv := newTestPaper()

	cases := []types.OrderIntent{
		{Side: types.Buy, Price: 100, Amount: 0},
		{Side: types.Buy, Price: 0, Amount: 1},
		{Side: types.Buy, Price: 100, Amount: 11},
		{Side: types.Sell, Price: 100, Amount: 3},
	}
	for _, in := range cases {
		if _, err := pv.PlaceLimitOrder(ctx, btc, in, "c"); !fail.IsKind(err, fail.Rejected) {
			t.Errorf("Expected Rejected for %+v, got %v", in, err)
		}
	}
}

func TestRestingOrderFillsWhenCrossed(t *testing.T) {
	ctx := context.Background()
	pv := newTestPaper()

	// A sell far below market is crossed by the very next bar.
	if _, err := pv.PlaceLimitOrder(ctx, btc, types.OrderIntent{Side: types.Sell, Price: 1, Amount: 1}, "c-1"); err != nil {
		t.Fatal(err)
	}
	open, err := pv.FetchOpenOrders(ctx, btc)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 0 {
		t.Errorf("Expected order filled, got %d open", len(open))
	}
	bal, _ := pv.FetchBalance(ctx, btc)
	if bal.BaseFree != 1 || bal.QuoteFree != 1001 {
		t.Errorf("Expected base 1 quote 1001, got %+v", bal)
	}
}

func TestRestingOrderStaysOpen(t *testing.T) {
	ctx := context.Background()
	pv := newTestPaper()

	if _, err := pv.PlaceLimitOrder(ctx, btc, types.OrderIntent{Side: types.Buy, Price: 1, Amount: 1}, "c-1"); err != nil {
		t.Fatal(err)
	}
	open, _ := pv.FetchOpenOrders(ctx, btc)
	if len(open) != 1 {
		t.Fatalf("Expected 1 open order, got %d", len(open))
	}
	if open[0].ClientID != "c-1" {
		t.Errorf("Expected client id c-1, got %q", open[0].ClientID)
	}
}

func TestCancelUnknownOrder(t *testing.T) {
	if err := newTestPaper().CancelOrder(context.Background(), btc, "nope"); err == nil {
		t.Error("Expected error cancelling unknown order")
	}
}

func TestFullTrustBuyIsAccepted(t *testing.T) {
	ctx := context.Background()
	params := sizing.Params{Premium: 0.003, Trust: 1}

	for seed := int64(1); seed <= 200; seed++ {
		pv := New(Params{StartPrice: 100, QuoteBalance: 1000, Volatility: 0.01, Seed: seed})
		bal, _ := pv.FetchBalance(ctx, btc)
		book, _ := pv.FetchTopOfBook(ctx, btc)

		intent, outcome := sizing.Intent(types.Buy, book, bal, params)
		if outcome != sizing.Sized {
			t.Fatalf("Seed %d: expected sized intent, got %s", seed, outcome)
		}
		o, err := pv.PlaceLimitOrder(ctx, btc, intent, "c-1")
		if err != nil {
			t.Fatalf("Seed %d: expected full-trust buy accepted, got %v", seed, err)
		}

		after, _ := pv.FetchBalance(ctx, btc)
		if after.QuoteFree < 0 || after.QuoteFree > 1e-4 {
			t.Errorf("Seed %d: expected quote fully reserved, got %v", seed, after.QuoteFree)
		}
		if err := pv.CancelOrder(ctx, btc, o.ID); err != nil {
			t.Fatalf("Seed %d: cancel failed: %v", seed, err)
		}
		after, _ = pv.FetchBalance(ctx, btc)
		if after.QuoteFree != 1000 {
			t.Errorf("Seed %d: expected quote 1000 after cancel, got %v", seed, after.QuoteFree)
		}
	}
}

func TestFullTrustSellIsAccepted(t *testing.T) {
	ctx := context.Background()
	pv := New(Params{StartPrice: 100, BaseBalance: 0.1 + 0.2, Volatility: 0.01, Seed: 7})

	bal, _ := pv.FetchBalance(ctx, btc)
	book, _ := pv.FetchTopOfBook(ctx, btc)
	intent, _ := sizing.Intent(types.Sell, book, bal, sizing.Params{Premium: 0.003, Trust: 1})

	if _, err := pv.PlaceLimitOrder(ctx, btc, intent, "c-1"); err != nil {
		t.Fatalf("Expected full-trust sell accepted, got %v", err)
	}
	after, _ := pv.FetchBalance(ctx, btc)
	if after.BaseFree != 0 {
		t.Errorf("Expected base fully reserved, got %v", after.BaseFree)
	}
}
