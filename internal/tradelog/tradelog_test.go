package tradelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"futures-trader/internal/types"

	"github.com/shopspring/decimal"
)

func TestAppendWritesOneRecordPerSubmission(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	req := types.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     types.SideBuy,
		Type:     types.OrderTypeMarket,
		Quantity: decimal.NewFromFloat(0.147),
	}
	res := types.OrderResult{OrderID: "MOCK-1", Status: types.StatusFilled}

	if err := Append(Entry{Request: req, Result: &res, Tag: "MARKET"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := Append(Entry{Request: req, Error: "rate limited", Tag: "SL"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	name := time.Now().UTC().Format("2006-01-02") + ".txt"
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Open daily file: %v", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("Each line must be valid JSON: %v", err)
		}
		entries = append(entries, e)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 audit records, got %d", len(entries))
	}
	if entries[0].Time == "" {
		t.Error("Audit record must carry a timestamp")
	}
	if entries[0].Result == nil || entries[0].Result.OrderID != "MOCK-1" {
		t.Errorf("First record must carry the result, got %+v", entries[0].Result)
	}
	if entries[1].Error != "rate limited" {
		t.Errorf("Failed submission must carry the error, got %q", entries[1].Error)
	}
	if entries[1].Result != nil {
		t.Error("Failed submission must not carry a result")
	}
}

func TestCompressOlderSkipsRecentFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	if err := Append(Entry{Request: types.OrderRequest{Symbol: "BTCUSDT"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := CompressOlder(7); err != nil {
		t.Fatalf("CompressOlder: %v", err)
	}

	name := time.Now().UTC().Format("2006-01-02") + ".txt"
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Errorf("Today's file must not be compressed: %v", err)
	}
}
