package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Market simulator configuration

[market]
# Cadence of the four generator timers
ticker_interval = "1s"
candle_interval = "5s"
book_interval = "500ms"
trade_interval = "2s"
# Candle bucket width and series cap (oldest evicted first)
candle_bucket = "1m"
candle_cap = 1000
history_candles = 100
tape_cap = 100
book_depth = 20
# Random seed, 0 = seeded from the clock
seed = 0
# Restrict the simulated symbols (empty = full registry)
symbols = []

[orders]
# Simulated execution latency window
min_latency = "500ms"
max_latency = "2500ms"
initial_cash = 100000.0
# cash or margin
account_type = "margin"

[automation]
enabled = true
poll_interval = "5s"
# Pace of place_order actions, 0 = unlimited
actions_per_second = 10
# YAML file with workflow definitions (empty = built-in defaults)
workflows_file = ""
history_limit = 1000

[store]
# SQLite audit log of resolved orders and workflow executions
enabled = false
# path defaults to <config dir>/marketsim.db
# path = "/var/lib/marketsim/marketsim.db"

[cache]
# memory or redis
driver = "memory"
addr = "localhost:6379"
password = ""
db = 0
ttl = "1m"

[server]
addr = ":8080"

[notify]
webhook_url = ""
timeout = "5s"
# all, trades_only or errors_only
level = "all"

[logging]
level = "info"
file = false
# file_path defaults to <config dir>/logs/marketsim.log
`

// WriteTemplate writes a commented marketsim.toml into configDir unless one exists.
// It returns the path of the config file.
func WriteTemplate(configDir string) (string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "marketsim.toml")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}
	return path, nil
}
