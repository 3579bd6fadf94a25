// Package zerodha implements the venue capability on Kite Connect. A pair's
// base is the exchange tradingsymbol and its quote is the settlement
// currency (e.g. INFY/INR).
package zerodha

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"trading-agent/internal/fail"
	"trading-agent/internal/interfaces"
	"trading-agent/internal/logger"
	"trading-agent/internal/types"
)

const variety = "regular"

type Params struct {
	APIKey      string
	AccessToken string
	Exchange    string
	Product     string
}

type Zerodha struct {
	p           Params
	kc          *kiteconnect.Client
	instruments *instrumentMapper
}

var _ interfaces.Venue = (*Zerodha)(nil)

func NewZerodha(p Params) (*Zerodha, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, errors.New("missing KITE_API_KEY/KITE_ACCESS_TOKEN")
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return &Zerodha{p: p, kc: kc, instruments: newInstrumentMapper()}, nil
}

func (z *Zerodha) Name() string { return "zerodha" }

func (z *Zerodha) quoteKey(pair types.Pair) string {
	return z.p.Exchange + ":" + pair.Base
}

func (z *Zerodha) FetchBalance(ctx context.Context, pair types.Pair) (types.Balances, error) {
	margins, err := z.kc.GetUserMargins()
	if err != nil {
		return types.Balances{}, classify("FetchBalance", err)
	}
	holdings, err := z.kc.GetHoldings()
	if err != nil {
		return types.Balances{}, classify("FetchBalance", err)
	}

	bal := types.Balances{QuoteFree: margins.Equity.Available.Cash}
	for _, h := range holdings {
		if h.Tradingsymbol == pair.Base && h.Exchange == z.p.Exchange {
			bal.BaseFree += float64(h.Quantity)
		}
	}
	return bal, nil
}

func (z *Zerodha) FetchTopOfBook(ctx context.Context, pair types.Pair) (types.TopOfBook, error) {
	key := z.quoteKey(pair)
	quotes, err := z.kc.GetQuote(key)
	if err != nil {
		return types.TopOfBook{}, classify("FetchTopOfBook", err)
	}
	q, ok := quotes[key]
	if !ok {
		return types.TopOfBook{}, fail.New(fail.Malformed, "FetchTopOfBook", fmt.Errorf("no quote for %s", key))
	}
	if len(q.Depth.Buy) == 0 || len(q.Depth.Sell) == 0 || q.Depth.Buy[0].Price <= 0 || q.Depth.Sell[0].Price <= 0 {
		return types.TopOfBook{}, fail.New(fail.Malformed, "FetchTopOfBook", fmt.Errorf("market depth for %s is missing a side", key))
	}
	return types.TopOfBook{Bid: q.Depth.Buy[0].Price, Ask: q.Depth.Sell[0].Price}, nil
}

// token resolves the instrument token, loading the exchange dump on first use.
func (z *Zerodha) token(ctx context.Context, symbol string) (int, error) {
	if token, ok := z.instruments.getToken(symbol); ok {
		return token, nil
	}
	if !z.instruments.isLoaded() {
		list, err := z.kc.GetInstrumentsByExchange(z.p.Exchange)
		if err != nil {
			return 0, classify("FetchBars", err)
		}
		for _, inst := range list {
			z.instruments.addMapping(inst.Tradingsymbol, int(inst.InstrumentToken))
		}
		z.instruments.markLoaded()
		logger.Debug(ctx, "Loaded instrument list", "exchange", z.p.Exchange, "count", len(list))
	}
	token, ok := z.instruments.getToken(symbol)
	if !ok {
		return 0, fail.New(fail.Malformed, "FetchBars", fmt.Errorf("unknown instrument %s:%s", z.p.Exchange, symbol))
	}
	return token, nil
}

// historicalInterval maps a timeframe onto Kite's candle intervals.
func historicalInterval(tf types.Timeframe) (string, error) {
	switch tf.Unit {
	case 'm':
		switch tf.N {
		case 1:
			return "minute", nil
		case 3, 5, 10, 15, 30, 60:
			return fmt.Sprintf("%dminute", tf.N), nil
		}
	case 'h':
		if tf.N == 1 {
			return "60minute", nil
		}
	case 'd':
		if tf.N == 1 {
			return "day", nil
		}
	}
	return "", fmt.Errorf("unsupported timeframe %s", tf)
}

func (z *Zerodha) FetchBars(ctx context.Context, pair types.Pair, tf types.Timeframe, limit int) ([]types.PriceBar, error) {
	interval, err := historicalInterval(tf)
	if err != nil {
		return nil, fail.New(fail.Malformed, "FetchBars", err)
	}
	token, err := z.token(ctx, pair.Base)
	if err != nil {
		return nil, err
	}

	// Exchange sessions leave long gaps, so look back well past the window.
	to := time.Now()
	from := to.Add(-5 * time.Duration(limit) * tf.Duration())
	if span := to.Sub(from); span < 4*24*time.Hour {
		from = to.Add(-4 * 24 * time.Hour)
	}

	candles, err := z.kc.GetHistoricalData(token, interval, from, to, false, false)
	if err != nil {
		return nil, classify("FetchBars", err)
	}
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	out := make([]types.PriceBar, 0, len(candles))
	for _, c := range candles {
		out = append(out, types.PriceBar{
			Ts:     c.Date.Unix(),
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: float64(c.Volume),
		})
	}
	return out, nil
}

func isOpenStatus(status string) bool {
	switch strings.ToUpper(status) {
	case "OPEN", "TRIGGER PENDING", "OPEN PENDING", "PUT ORDER REQ RECEIVED":
		return true
	}
	return false
}

func (z *Zerodha) FetchOpenOrders(ctx context.Context, pair types.Pair) ([]types.OpenOrder, error) {
	orders, err := z.kc.GetOrders()
	if err != nil {
		return nil, classify("FetchOpenOrders", err)
	}

	var out []types.OpenOrder
	for _, o := range orders {
		if o.TradingSymbol != pair.Base || o.Exchange != z.p.Exchange || !isOpenStatus(o.Status) {
			continue
		}
		out = append(out, types.OpenOrder{
			ID:       o.OrderID,
			ClientID: o.Tag,
			Side:     types.Side(strings.ToLower(o.TransactionType)),
			Price:    o.Price,
			Amount:   float64(o.PendingQuantity),
			Status:   o.Status,
		})
	}
	return out, nil
}

// PlaceLimitOrder rounds the amount down to whole shares; Kite has no
// fractional equity quantities.
func (z *Zerodha) PlaceLimitOrder(ctx context.Context, pair types.Pair, intent types.OrderIntent, clientID string) (types.OpenOrder, error) {
	qty := int(intent.Amount)
	if qty < 1 {
		return types.OpenOrder{}, fail.New(fail.Rejected, "PlaceLimitOrder",
			fmt.Errorf("amount %.4f rounds to zero shares", intent.Amount))
	}
	price := tickRound(intent.Price)

	resp, err := z.kc.PlaceOrder(variety, kiteconnect.OrderParams{
		Exchange:        z.p.Exchange,
		Tradingsymbol:   pair.Base,
		Validity:        "DAY",
		Product:         z.p.Product,
		OrderType:       "LIMIT",
		TransactionType: strings.ToUpper(string(intent.Side)),
		Quantity:        qty,
		Price:           price,
		Tag:             clientID,
	})
	if err != nil {
		return types.OpenOrder{}, classify("PlaceLimitOrder", err)
	}

	return types.OpenOrder{
		ID:       resp.OrderID,
		ClientID: clientID,
		Side:     intent.Side,
		Price:    price,
		Amount:   float64(qty),
		Status:   "OPEN",
	}, nil
}

func (z *Zerodha) CancelOrder(ctx context.Context, pair types.Pair, id string) error {
	if _, err := z.kc.CancelOrder(variety, id, nil); err != nil {
		return classify("CancelOrder", err)
	}
	return nil
}

// tickRound snaps a price to the 0.05 tick NSE and BSE equities trade in.
func tickRound(price float64) float64 {
	ticks := int64(price*20 + 0.5)
	return float64(ticks) / 20
}

func classify(op string, err error) error {
	var kerr kiteconnect.Error
	if errors.As(err, &kerr) {
		switch kerr.ErrorType {
		case "InputException", "OrderException":
			return fail.New(fail.Rejected, op, err)
		}
		return fail.New(fail.Transport, op, err)
	}
	return fail.FromContext(op, err)
}
