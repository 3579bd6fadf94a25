package tradelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trading-agent/internal/types"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Expected journal file %s, got %v", path, err)
	}
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("Expected JSON line, got %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestAppendWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	if err := Append(OrderEntry{Pair: "BTC/USD", Side: types.Buy, OrderID: "o-1", ClientID: "c-1", Amount: 0.5, Price: 100}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := Append(OrderEntry{Pair: "BTC/USD", Side: types.Sell, OrderID: "o-2", Amount: 0.25, Price: 101}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	lines := readLines(t, dailyFilepath("orders", time.Now()))
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	first := lines[0]
	if first["event"] != "order" {
		t.Errorf("Expected event order, got %v", first["event"])
	}
	if first["side"] != "buy" {
		t.Errorf("Expected side buy, got %v", first["side"])
	}
	if first["amount"] != 0.5 {
		t.Errorf("Expected amount 0.5, got %v", first["amount"])
	}
	if _, ok := first["time"].(string); !ok {
		t.Errorf("Expected time string, got %v", first["time"])
	}
	if lines[1]["order_id"] != "o-2" {
		t.Errorf("Expected order_id o-2, got %v", lines[1]["order_id"])
	}
}

func TestAppendDecisionOmitsEmptyFields(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	if err := AppendDecision(DecisionEntry{Pair: "ETH/USD", Strategy: "technical", Outcome: types.OutcomeWaiting, CancelCount: 2}); err != nil {
		t.Fatalf("AppendDecision failed: %v", err)
	}

	lines := readLines(t, dailyFilepath("decisions", time.Now()))
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if _, ok := lines[0]["prediction"]; ok {
		t.Error("Expected no prediction field")
	}
	if lines[0]["cancel_count"] != float64(2) {
		t.Errorf("Expected cancel_count 2, got %v", lines[0]["cancel_count"])
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	old := filepath.Join(dir, "orders", "2020-01-01"+ext)
	fresh := filepath.Join(dir, "orders", "2099-01-01"+ext)
	if err := os.MkdirAll(filepath.Dir(old), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{old, fresh} {
		if err := os.WriteFile(p, []byte("{}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	if err := CompressOlder(7); err != nil {
		t.Fatalf("CompressOlder failed: %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Errorf("Expected %s removed, got %v", old, err)
	}
	if _, err := os.Stat(old + ".gz"); err != nil {
		t.Errorf("Expected gzip archive, got %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("Expected fresh file kept, got %v", err)
	}
}
