// Package tradelog keeps an append-only JSON journal of decisions and orders,
// one file per UTC day. The loop never reads it back.
package tradelog

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"trading-agent/internal/types"
)

const ext = ".jsonl"

var mu sync.Mutex

type OrderEntry struct {
	Pair     string
	Side     types.Side
	OrderID  string
	ClientID string
	Amount   float64
	Price    float64
}

type DecisionEntry struct {
	Pair        string
	Strategy    string
	Prediction  types.Prediction
	Outcome     string
	CancelCount int
	Reason      string
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(kind string, t time.Time) string {
	return filepath.Join(logDir(), kind, t.UTC().Format("2006-01-02")+ext)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.MessageKey = "event"
	cfg.LevelKey = ""
	cfg.CallerKey = ""
	cfg.StacktraceKey = ""
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	return cfg
}

// write appends one JSON line to the journal file for kind.
func write(kind, event string, fields ...zap.Field) error {
	mu.Lock()
	defer mu.Unlock()

	p := dailyFilepath(kind, time.Now())
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(f), zapcore.InfoLevel)
	l := zap.New(core)
	l.Info(event, fields...)
	return l.Sync()
}

// Append records a placed order.
func Append(e OrderEntry) error {
	return write("orders", "order",
		zap.String("pair", e.Pair),
		zap.String("side", string(e.Side)),
		zap.String("order_id", e.OrderID),
		zap.String("client_id", e.ClientID),
		zap.Float64("amount", e.Amount),
		zap.Float64("price", e.Price),
	)
}

// AppendDecision records the outcome of one loop iteration.
func AppendDecision(e DecisionEntry) error {
	fields := []zap.Field{
		zap.String("pair", e.Pair),
		zap.String("strategy", e.Strategy),
		zap.String("outcome", e.Outcome),
		zap.Int("cancel_count", e.CancelCount),
	}
	if e.Prediction != "" {
		fields = append(fields, zap.String("prediction", string(e.Prediction)))
	}
	if e.Reason != "" {
		fields = append(fields, zap.String("reason", e.Reason))
	}
	return write("decisions", "decision", fields...)
}

// CompressOlder gzips journal files last modified more than retentionDays ago.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(logDir(), func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ext {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err == nil {
			_ = os.Remove(p)
		}
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	_, copyErr := io.Copy(gw, in)
	gwErr := gw.Close()
	outErr := out.Close()
	if copyErr != nil {
		_ = os.Remove(dst)
		return copyErr
	}
	if gwErr != nil {
		return gwErr
	}
	return outErr
}
