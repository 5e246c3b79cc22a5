package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/danielweickdag/kairo-quantum-sub006/internal/errors"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/models"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore implements AuditStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based audit store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Orders in their latest recorded state
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		asset_class TEXT NOT NULL,
		side TEXT NOT NULL,
		type TEXT NOT NULL,
		quantity REAL NOT NULL,
		limit_price REAL,
		stop_price REAL,
		trailing_amount REAL,
		trailing_percent REAL,
		time_in_force TEXT NOT NULL,
		take_profit REAL,
		stop_loss REAL,
		status TEXT NOT NULL,
		fill_price REAL,
		fill_quantity REAL,
		commission REAL,
		reason TEXT,
		metadata TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		filled_at DATETIME
	);

	-- Workflow executions with per-action results
	CREATE TABLE IF NOT EXISTS workflow_executions (
		id TEXT PRIMARY KEY,
		workflow_id TEXT NOT NULL,
		trigger_id TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		results TEXT NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_orders_account ON orders(account_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders(symbol, created_at);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	CREATE INDEX IF NOT EXISTS idx_executions_workflow ON workflow_executions(workflow_id, started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Orders Methods
// ============================================================================

// SaveOrder inserts the order or replaces its previously recorded state.
func (s *SQLiteStore) SaveOrder(ctx context.Context, order *models.TradingOrder) error {
	metadata, err := sonic.MarshalString(order.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode order metadata: %w", err)
	}

	var filledAt sql.NullTime
	if order.FilledAt != nil {
		filledAt = sql.NullTime{Time: *order.FilledAt, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO orders (id, account_id, symbol, asset_class, side, type, quantity, limit_price, stop_price, trailing_amount, trailing_percent, time_in_force, take_profit, stop_loss, status, fill_price, fill_quantity, commission, reason, metadata, created_at, updated_at, filled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, order.ID, order.AccountID, order.Symbol, order.AssetClass, order.Side, order.Type, order.Quantity,
		order.LimitPrice, order.StopPrice, order.TrailingAmount, order.TrailingPercent, order.TimeInForce,
		order.TakeProfit, order.StopLoss, order.Status, order.FillPrice, order.FillQuantity, order.Commission,
		order.Reason, metadata, order.CreatedAt, order.UpdatedAt, filledAt)
	if err != nil {
		return fmt.Errorf("%w: save order %s: %v", apperrors.ErrDatabaseError, order.ID, err)
	}
	return nil
}

const orderColumns = "id, account_id, symbol, asset_class, side, type, quantity, limit_price, stop_price, trailing_amount, trailing_percent, time_in_force, take_profit, stop_loss, status, fill_price, fill_quantity, commission, reason, metadata, created_at, updated_at, filled_at"

// GetOrders retrieves recorded orders, newest first.
func (s *SQLiteStore) GetOrders(ctx context.Context, filter OrderFilter) ([]models.TradingOrder, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE 1=1"
	args := []interface{}{}

	if filter.AccountID != "" {
		query += " AND account_id = ?"
		args = append(args, filter.AccountID)
	}
	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if !filter.StartDate.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, filter.EndDate)
	}

	query += " ORDER BY created_at DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.TradingOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// GetOrder retrieves one recorded order.
func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*models.TradingOrder, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row scanner) (*models.TradingOrder, error) {
	var o models.TradingOrder
	var metadata sql.NullString
	var reason sql.NullString
	var filledAt sql.NullTime

	err := row.Scan(&o.ID, &o.AccountID, &o.Symbol, &o.AssetClass, &o.Side, &o.Type, &o.Quantity,
		&o.LimitPrice, &o.StopPrice, &o.TrailingAmount, &o.TrailingPercent, &o.TimeInForce,
		&o.TakeProfit, &o.StopLoss, &o.Status, &o.FillPrice, &o.FillQuantity, &o.Commission,
		&reason, &metadata, &o.CreatedAt, &o.UpdatedAt, &filledAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	o.Reason = reason.String
	if metadata.Valid && metadata.String != "" && metadata.String != "null" {
		if err := sonic.UnmarshalString(metadata.String, &o.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata of order %s: %w", o.ID, err)
		}
	}
	if filledAt.Valid {
		t := filledAt.Time
		o.FilledAt = &t
	}
	return &o, nil
}

// GetOrderStats summarizes recorded orders matching filter. Limit is ignored.
func (s *SQLiteStore) GetOrderStats(ctx context.Context, filter OrderFilter) (*OrderStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'filled' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(commission), 0),
			COALESCE(SUM(CASE WHEN status = 'filled' THEN fill_price * fill_quantity ELSE 0 END), 0)
		FROM orders WHERE 1=1`
	args := []interface{}{}

	if filter.AccountID != "" {
		query += " AND account_id = ?"
		args = append(args, filter.AccountID)
	}
	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if !filter.StartDate.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, filter.EndDate)
	}

	var stats OrderStats
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.Total, &stats.Filled, &stats.Rejected, &stats.Cancelled,
		&stats.TotalCommission, &stats.TotalNotional)
	if err != nil {
		return nil, fmt.Errorf("failed to get order stats: %w", err)
	}
	return &stats, nil
}

// ============================================================================
// Executions Methods
// ============================================================================

// SaveExecution inserts the execution or replaces its recorded state.
func (s *SQLiteStore) SaveExecution(ctx context.Context, exec *models.WorkflowExecution) error {
	results, err := sonic.MarshalString(exec.Results)
	if err != nil {
		return fmt.Errorf("failed to encode execution results: %w", err)
	}

	var endedAt sql.NullTime
	if exec.EndedAt != nil {
		endedAt = sql.NullTime{Time: *exec.EndedAt, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO workflow_executions (id, workflow_id, trigger_id, status, started_at, ended_at, results, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, exec.ID, exec.WorkflowID, exec.TriggerID, exec.Status, exec.StartedAt, endedAt, results, exec.Error)
	if err != nil {
		return fmt.Errorf("%w: save execution %s: %v", apperrors.ErrDatabaseError, exec.ID, err)
	}
	return nil
}

// GetExecutions retrieves recorded executions, newest first.
func (s *SQLiteStore) GetExecutions(ctx context.Context, filter ExecutionFilter) ([]models.WorkflowExecution, error) {
	query := "SELECT id, workflow_id, trigger_id, status, started_at, ended_at, results, error FROM workflow_executions WHERE 1=1"
	args := []interface{}{}

	if filter.WorkflowID != "" {
		query += " AND workflow_id = ?"
		args = append(args, filter.WorkflowID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	query += " ORDER BY started_at DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var execs []models.WorkflowExecution
	for rows.Next() {
		var e models.WorkflowExecution
		var endedAt sql.NullTime
		var results string
		var errMsg sql.NullString

		if err := rows.Scan(&e.ID, &e.WorkflowID, &e.TriggerID, &e.Status, &e.StartedAt, &endedAt, &results, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		if err := sonic.UnmarshalString(results, &e.Results); err != nil {
			return nil, fmt.Errorf("failed to decode results of execution %s: %w", e.ID, err)
		}
		if endedAt.Valid {
			t := endedAt.Time
			e.EndedAt = &t
		}
		e.Error = errMsg.String
		execs = append(execs, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return execs, nil
}
