// Package alpaca implements the venue capability on Alpaca's trading and
// crypto market data APIs.
package alpaca

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"trading-agent/internal/fail"
	"trading-agent/internal/interfaces"
	"trading-agent/internal/logger"
	"trading-agent/internal/types"
)

const (
	LiveURL  = "https://api.alpaca.markets"
	PaperURL = "https://paper-api.alpaca.markets"
)

type Params struct {
	APIKey    string
	APISecret string
	BaseURL   string
	DataURL   string
}

type Alpaca struct {
	trading *alpaca.Client
	data    *marketdata.Client
}

var _ interfaces.Venue = (*Alpaca)(nil)

func New(p Params) (*Alpaca, error) {
	if p.APIKey == "" || p.APISecret == "" {
		return nil, errors.New("missing ALPACA_API_KEY/ALPACA_API_SECRET")
	}
	if p.BaseURL == "" {
		p.BaseURL = PaperURL
	}
	return &Alpaca{
		trading: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    p.APIKey,
			APISecret: p.APISecret,
			BaseURL:   p.BaseURL,
		}),
		data: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    p.APIKey,
			APISecret: p.APISecret,
			BaseURL:   p.DataURL,
		}),
	}, nil
}

func (a *Alpaca) Name() string { return "alpaca" }

// positionSymbol is the slash-free form Alpaca uses for crypto positions.
func positionSymbol(pair types.Pair) string {
	return pair.Base + pair.Quote
}

func (a *Alpaca) FetchBalance(ctx context.Context, pair types.Pair) (types.Balances, error) {
	acct, err := a.trading.GetAccount()
	if err != nil {
		return types.Balances{}, classify("FetchBalance", err)
	}
	bal := types.Balances{QuoteFree: acct.Cash.InexactFloat64()}

	pos, err := a.trading.GetPosition(positionSymbol(pair))
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return bal, nil
		}
		return types.Balances{}, classify("FetchBalance", err)
	}
	bal.BaseFree = pos.Qty.InexactFloat64()
	return bal, nil
}

func (a *Alpaca) FetchTopOfBook(ctx context.Context, pair types.Pair) (types.TopOfBook, error) {
	q, err := a.data.GetLatestCryptoQuote(pair.String(), marketdata.GetLatestCryptoQuoteRequest{})
	if err != nil {
		return types.TopOfBook{}, classify("FetchTopOfBook", err)
	}
	if q == nil || q.BidPrice <= 0 || q.AskPrice <= 0 {
		return types.TopOfBook{}, fail.New(fail.Malformed, "FetchTopOfBook",
			fmt.Errorf("quote for %s is missing a side", pair))
	}
	return types.TopOfBook{Bid: q.BidPrice, Ask: q.AskPrice}, nil
}

// barTimeFrame maps a timeframe onto Alpaca's bar aggregation units.
func barTimeFrame(tf types.Timeframe) (marketdata.TimeFrame, error) {
	switch tf.Unit {
	case 'm':
		return marketdata.NewTimeFrame(tf.N, marketdata.Min), nil
	case 'h':
		return marketdata.NewTimeFrame(tf.N, marketdata.Hour), nil
	case 'd':
		return marketdata.NewTimeFrame(tf.N, marketdata.Day), nil
	}
	return marketdata.TimeFrame{}, fmt.Errorf("unsupported timeframe %s", tf)
}

func (a *Alpaca) FetchBars(ctx context.Context, pair types.Pair, tf types.Timeframe, limit int) ([]types.PriceBar, error) {
	frame, err := barTimeFrame(tf)
	if err != nil {
		return nil, fail.New(fail.Malformed, "FetchBars", err)
	}
	end := time.Now().UTC()
	// Twice the window so gaps in thin markets still leave enough bars.
	start := end.Add(-2 * time.Duration(limit) * tf.Duration())

	bars, err := a.data.GetCryptoBars(pair.String(), marketdata.GetCryptoBarsRequest{
		TimeFrame: frame,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, classify("FetchBars", err)
	}
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}

	out := make([]types.PriceBar, 0, len(bars))
	for _, b := range bars {
		out = append(out, types.PriceBar{
			Ts:     b.Timestamp.Unix(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	logger.Debug(ctx, "Fetched crypto bars", "pair", pair.String(), "timeframe", tf.String(), "count", len(out))
	return out, nil
}

func (a *Alpaca) FetchOpenOrders(ctx context.Context, pair types.Pair) ([]types.OpenOrder, error) {
	orders, err := a.trading.GetOrders(alpaca.GetOrdersRequest{
		Status:  "open",
		Symbols: []string{pair.String()},
	})
	if err != nil {
		return nil, classify("FetchOpenOrders", err)
	}

	out := make([]types.OpenOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOpenOrder(o))
	}
	return out, nil
}

func (a *Alpaca) PlaceLimitOrder(ctx context.Context, pair types.Pair, intent types.OrderIntent, clientID string) (types.OpenOrder, error) {
	side := alpaca.Buy
	if intent.Side == types.Sell {
		side = alpaca.Sell
	}
	qty := decimal.NewFromFloat(intent.Amount)
	limitPrice := decimal.NewFromFloat(intent.Price).Round(2)

	order, err := a.trading.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:        pair.String(),
		Qty:           &qty,
		Side:          side,
		Type:          alpaca.Limit,
		TimeInForce:   alpaca.GTC,
		LimitPrice:    &limitPrice,
		ClientOrderID: clientID,
	})
	if err != nil {
		return types.OpenOrder{}, classify("PlaceLimitOrder", err)
	}
	return toOpenOrder(*order), nil
}

func (a *Alpaca) CancelOrder(ctx context.Context, pair types.Pair, id string) error {
	if err := a.trading.CancelOrder(id); err != nil {
		return classify("CancelOrder", err)
	}
	return nil
}

func toOpenOrder(o alpaca.Order) types.OpenOrder {
	out := types.OpenOrder{
		ID:       o.ID,
		ClientID: o.ClientOrderID,
		Side:     types.Side(strings.ToLower(string(o.Side))),
		Status:   o.Status,
	}
	if o.Qty != nil {
		out.Amount = o.Qty.InexactFloat64()
	}
	if o.LimitPrice != nil {
		out.Price = o.LimitPrice.InexactFloat64()
	}
	return out
}

// classify maps Alpaca API errors onto fail kinds. 403 and 422 are the
// venue's way of refusing an order (buying power, invalid qty, etc).
func classify(op string, err error) error {
	var apiErr *alpaca.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusForbidden, http.StatusUnprocessableEntity:
			return fail.New(fail.Rejected, op, err)
		}
		return fail.New(fail.Transport, op, err)
	}
	return fail.FromContext(op, err)
}
