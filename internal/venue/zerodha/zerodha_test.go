package zerodha

import (
	"context"
	"errors"
	"testing"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"trading-agent/internal/fail"
	"trading-agent/internal/types"
)

func TestHistoricalInterval(t *testing.T) {
	tests := []struct {
		tf      types.Timeframe
		want    string
		wantErr bool
	}{
		{types.Timeframe{N: 1, Unit: 'm'}, "minute", false},
		{types.Timeframe{N: 15, Unit: 'm'}, "15minute", false},
		{types.Timeframe{N: 1, Unit: 'h'}, "60minute", false},
		{types.Timeframe{N: 1, Unit: 'd'}, "day", false},
		{types.Timeframe{N: 4, Unit: 'h'}, "", true},
		{types.Timeframe{N: 2, Unit: 'm'}, "", true},
	}

	for _, tt := range tests {
		got, err := historicalInterval(tt.tf)
		if (err != nil) != tt.wantErr {
			t.Errorf("historicalInterval(%s) error = %v, wantErr %v", tt.tf, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("historicalInterval(%s) = %q, want %q", tt.tf, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want fail.Kind
	}{
		{kiteconnect.Error{ErrorType: "InputException", Message: "invalid price"}, fail.Rejected},
		{kiteconnect.Error{ErrorType: "OrderException", Message: "insufficient funds"}, fail.Rejected},
		{kiteconnect.Error{ErrorType: "NetworkException"}, fail.Transport},
		{kiteconnect.Error{ErrorType: "TokenException"}, fail.Transport},
		{errors.New("dial tcp: refused"), fail.Transport},
	}

	for _, tt := range tests {
		kind, _ := fail.KindOf(classify("PlaceLimitOrder", tt.err))
		if kind != tt.want {
			t.Errorf("classify(%v) = %v, want %v", tt.err, kind, tt.want)
		}
	}
}

func TestTickRound(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{100.02, 100.0},
		{100.03, 100.05},
		{1520.5, 1520.5},
	}
	for _, tt := range tests {
		if got := tickRound(tt.in); got != tt.want {
			t.Errorf("tickRound(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInstrumentMapper(t *testing.T) {
	im := newInstrumentMapper()
	if im.isLoaded() {
		t.Error("Expected fresh mapper to be unloaded")
	}
	im.addMapping("INFY", 408065)
	im.markLoaded()

	token, ok := im.getToken("INFY")
	if !ok || token != 408065 {
		t.Errorf("Expected token 408065, got %d (found=%v)", token, ok)
	}
	if im.getSymbol(408065) != "INFY" {
		t.Errorf("Expected INFY, got %q", im.getSymbol(408065))
	}
	if _, ok := im.getToken("TCS"); ok {
		t.Error("Expected TCS to be unmapped")
	}
}

func TestPlaceLimitOrderRejectsFractionalShare(t *testing.T) {
	z, err := NewZerodha(Params{APIKey: "k", AccessToken: "t", Exchange: "NSE", Product: "CNC"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = z.PlaceLimitOrder(context.Background(), types.Pair{Base: "INFY", Quote: "INR"},
		types.OrderIntent{Side: types.Buy, Price: 1500, Amount: 0.4}, "c-1")
	if !fail.IsKind(err, fail.Rejected) {
		t.Errorf("Expected Rejected, got %v", err)
	}
}

func TestNewZerodhaRequiresCredentials(t *testing.T) {
	if _, err := NewZerodha(Params{Exchange: "NSE"}); err == nil {
		t.Error("Expected error without credentials")
	}
}
