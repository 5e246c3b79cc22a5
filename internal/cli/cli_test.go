package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/danielweickdag/kairo-quantum-sub006/internal/errors"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

const testConfig = `
[market]
seed = 42

[logging]
level = "error"
`

// configDir writes a marketsim.toml with extra appended and returns its directory.
func configDir(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marketsim.toml"), []byte(testConfig+extra), 0600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(zerolog.Nop())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", dir, "--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestWriteCandlesCSV(t *testing.T) {
	at := time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)
	candles := []models.Candle{
		{Timestamp: at, Open: 100, High: 101.5, Low: 99.25, Close: 101, Volume: 1200},
		{Timestamp: at.Add(time.Minute), Open: 101, High: 102, Low: 100.5, Close: 100.75, Volume: 800},
	}

	var buf bytes.Buffer
	if err := WriteCandlesCSV(&buf, candles); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2", len(records))
	}
	if got := strings.Join(records[0], ","); got != "timestamp,open,high,low,close,volume" {
		t.Errorf("header = %s", got)
	}
	if records[1][0] != "2024-03-13T15:00:00Z" || records[2][0] != "2024-03-13T15:01:00Z" {
		t.Errorf("timestamps = %s, %s", records[1][0], records[2][0])
	}
	if records[1][2] != "101.5" {
		t.Errorf("high = %s", records[1][2])
	}
}

func TestExportCandlesCommand(t *testing.T) {
	dir := configDir(t, "")
	path := filepath.Join(dir, "aapl.csv")

	out, err := runCLI(t, dir, "export", "candles", "aapl", "--limit", "10", "-o", path)
	if err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Wrote "+path) {
		t.Errorf("output = %q", out)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 11 {
		t.Fatalf("records = %d, want header + 10", len(records))
	}
	if records[0][0] != "timestamp" {
		t.Errorf("header = %v", records[0])
	}
}

func TestExportTradesToStdout(t *testing.T) {
	out, err := runCLI(t, configDir(t, ""), "export", "trades", "BTCUSD", "--limit", "5")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 || lines[0] != "timestamp,id,side,price,size" {
		t.Errorf("output = %q", out)
	}
}

func TestExportUnknownSymbol(t *testing.T) {
	_, err := runCLI(t, configDir(t, ""), "export", "candles", "NOPE")
	if !errors.Is(err, apperrors.ErrSymbolNotFound) {
		t.Errorf("err = %v, want ErrSymbolNotFound", err)
	}
}

func TestSymbolsFilter(t *testing.T) {
	out, err := runCLI(t, configDir(t, ""), "--json", "symbols", "--asset", "crypto")
	if err != nil {
		t.Fatal(err)
	}
	var list []models.InstrumentConfig
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(list) == 0 {
		t.Fatal("no crypto instruments")
	}
	for _, inst := range list {
		if inst.AssetClass != models.AssetCrypto {
			t.Errorf("%s is %s", inst.Symbol, inst.AssetClass)
		}
	}
}

func TestSymbolsRestrictedByConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := "[market]\nsymbols = [\"AAPL\", \"ES-FUT\"]\n\n[logging]\nlevel = \"error\"\n"
	if err := os.WriteFile(filepath.Join(dir, "marketsim.toml"), []byte(cfg), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, dir, "symbols")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "AAPL") || !strings.Contains(out, "ES-FUT") || !strings.Contains(out, "2 instruments") {
		t.Errorf("output = %s", out)
	}
}

func TestQuoteAdvance(t *testing.T) {
	out, err := runCLI(t, configDir(t, ""), "--json", "quote", "AAPL", "btcusd", "--advance", "1m")
	if err != nil {
		t.Fatal(err)
	}
	var quotes []quoteView
	if err := json.Unmarshal([]byte(out), &quotes); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(quotes) != 2 || quotes[0].Ticker.Symbol != "AAPL" || quotes[1].Ticker.Symbol != "BTCUSD" {
		t.Fatalf("quotes = %+v", quotes)
	}
	for _, q := range quotes {
		if q.Ticker.Price <= 0 || q.BestBid.Price >= q.BestAsk.Price {
			t.Errorf("%s: price %v bid %v ask %v", q.Ticker.Symbol, q.Ticker.Price, q.BestBid.Price, q.BestAsk.Price)
		}
	}
}

func TestQuoteText(t *testing.T) {
	out, err := runCLI(t, configDir(t, ""), "quote", "MSFT")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"MSFT", "Last:", "Bid:", "RSI14:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("--no-color output contains escapes")
	}
}

func TestWorkflowsListAndCheck(t *testing.T) {
	dir := configDir(t, "")
	out, err := runCLI(t, dir, "--json", "workflows", "list")
	if err != nil {
		t.Fatal(err)
	}
	var wfs []models.AutomationWorkflow
	if err := json.Unmarshal([]byte(out), &wfs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(wfs) != 5 {
		t.Errorf("workflows = %d, want 5", len(wfs))
	}

	if out, err := runCLI(t, dir, "workflows", "check"); err != nil || !strings.Contains(out, "5 workflows are valid") {
		t.Errorf("check: %v %q", err, out)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("workflows:\n  - id: x\n    name: x\n    actions:\n      - kind: launch_rocket\n"), 0600)
	if _, err := runCLI(t, dir, "workflows", "check", "--file", bad); err == nil || !strings.Contains(err.Error(), "launch_rocket") {
		t.Errorf("check bad err = %v", err)
	}
}

func TestWorkflowExecuteRecordsHistory(t *testing.T) {
	dir := configDir(t, "")
	db := filepath.Join(dir, "audit.db")
	cfg := testConfig + "\n[store]\nenabled = true\npath = \"" + filepath.ToSlash(db) + "\"\n"
	if err := os.WriteFile(filepath.Join(dir, "marketsim.toml"), []byte(cfg), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, dir, "--json", "workflows", "execute", "wf-btc-dip-buyer")
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, out)
	}
	var exec models.WorkflowExecution
	if err := json.Unmarshal([]byte(out), &exec); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if exec.Status != models.ExecutionCompleted || len(exec.Results) != 2 {
		t.Fatalf("execution = %+v", exec)
	}

	out, err = runCLI(t, dir, "--json", "history", "orders")
	if err != nil {
		t.Fatal(err)
	}
	var orders []models.TradingOrder
	if err := json.Unmarshal([]byte(out), &orders); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(orders) != 1 || orders[0].Symbol != "BTCUSD" || orders[0].Status != models.OrderFilled {
		t.Fatalf("orders = %+v", orders)
	}

	out, err = runCLI(t, dir, "--json", "history", "executions", "--workflow", "wf-btc-dip-buyer")
	if err != nil {
		t.Fatal(err)
	}
	var execs []models.WorkflowExecution
	if err := json.Unmarshal([]byte(out), &execs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(execs) != 1 || execs[0].ID != exec.ID {
		t.Errorf("executions = %+v", execs)
	}

	out, err = runCLI(t, dir, "history", "stats")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Total:       1") {
		t.Errorf("stats = %s", out)
	}
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "config", "init")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "marketsim.toml")); err != nil {
		t.Fatalf("template not written: %v (%s)", err, out)
	}

	if out, err := runCLI(t, dir, "config", "validate"); err != nil || !strings.Contains(out, "valid") {
		t.Errorf("validate: %v %q", err, out)
	}
	if out, _ := runCLI(t, dir, "config", "path"); strings.TrimSpace(out) != dir {
		t.Errorf("path = %q", out)
	}

	os.WriteFile(filepath.Join(dir, "marketsim.toml"), []byte("[cache]\ndriver = \"memcached\"\n"), 0600)
	if _, err := runCLI(t, dir, "config", "show"); err == nil || !strings.Contains(err.Error(), "memcached") {
		t.Errorf("invalid config err = %v", err)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := runCLI(t, configDir(t, ""), "--json", "version")
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]string
	if err := json.Unmarshal([]byte(out), &v); err != nil || v["version"] != Version {
		t.Errorf("version = %q (%v)", out, err)
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	dir := configDir(t, "\n[cache]\npassword = \"redis-secret-value\"\n\n[notify]\nwebhook_url = \"https://hooks.example.com/services/T0KEN\"\n")
	for _, args := range [][]string{{"config", "show"}, {"--json", "config", "show"}} {
		out, err := runCLI(t, dir, args...)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(out, "redis-secret-value") || strings.Contains(out, "T0KEN") {
			t.Errorf("%v leaked a secret:\n%s", args, out)
		}
		if !strings.Contains(out, "hooks.example.com") {
			t.Errorf("%v missing webhook host:\n%s", args, out)
		}
	}
}

func TestWatchStopsAfterCount(t *testing.T) {
	out, err := runCLI(t, configDir(t, ""), "--json", "watch", "aapl", "btcusd", "--interval", "20ms", "--count", "2")
	if err != nil {
		t.Fatalf("watch: %v\n%s", err, out)
	}
	dec := json.NewDecoder(strings.NewReader(out))
	frames := 0
	for dec.More() {
		var tickers []models.Ticker
		if err := dec.Decode(&tickers); err != nil {
			t.Fatalf("decode frame %d: %v", frames, err)
		}
		if len(tickers) != 2 {
			t.Errorf("frame %d has %d tickers", frames, len(tickers))
		}
		frames++
	}
	if frames != 2 {
		t.Errorf("frames = %d, want 2", frames)
	}
}

func TestExamplesListsCommands(t *testing.T) {
	out, err := runCLI(t, configDir(t, ""), "examples")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"marketsim run", "marketsim workflows execute", "marketsim history stats"} {
		if !strings.Contains(out, want) {
			t.Errorf("examples missing %q", want)
		}
	}
	for _, ex := range examples {
		if !strings.Contains(out, ex.Title) {
			t.Errorf("examples missing title %q", ex.Title)
		}
	}
	if strings.Contains(out, "%!") {
		t.Errorf("examples output has formatting artifacts:\n%s", out)
	}
}

func TestBoldPrintsTitleVerbatim(t *testing.T) {
	var buf bytes.Buffer
	o := &Output{writer: &buf}
	o.Bold("%s", "100% fills")
	if got := buf.String(); got != "100% fills\n" {
		t.Errorf("Bold = %q", got)
	}
}
