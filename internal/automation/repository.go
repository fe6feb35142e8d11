package automation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/homesim/internal/device"
)

// defaultListLimit caps ListTicks when the caller passes a non-positive limit.
const defaultListLimit = 50

// storedTimeLayout is fixed-width so created_at sorts lexically.
const storedTimeLayout = "2006-01-02T15:04:05.000000Z"

// TickRecord is the persisted form of a TickReport.
type TickRecord struct {
	ID           string                `json:"id"`
	SimTime      string                `json:"sim_time"`
	Temperature  int                   `json:"temperature"`
	DevicesTotal int                   `json:"devices_total"`
	DevicesOn    int                   `json:"devices_on"`
	Rules        []RuleResult          `json:"rules"`
	Statuses     []device.StatusRecord `json:"statuses"`
	DurationUS   int64                 `json:"duration_us"`
	CreatedAt    time.Time             `json:"created_at"`
}

// RecordFromReport converts an engine report into a history record.
func RecordFromReport(r TickReport) TickRecord {
	return TickRecord{
		ID:           r.ID,
		SimTime:      r.At.String(),
		Temperature:  r.Temperature,
		DevicesTotal: len(r.Devices),
		DevicesOn:    r.PoweredOn(),
		Rules:        r.Rules,
		Statuses:     r.Devices,
		DurationUS:   r.Duration.Microseconds(),
		CreatedAt:    r.StartedAt,
	}
}

// Repository defines tick history persistence.
type Repository interface {
	CreateTick(ctx context.Context, rec *TickRecord) error
	GetTick(ctx context.Context, id string) (*TickRecord, error)
	ListTicks(ctx context.Context, limit int) ([]TickRecord, error)
	CountTicks(ctx context.Context) (int, error)
}

const tickColumns = `id, sim_time, temperature, devices_total, devices_on,
			rules, statuses, duration_us, created_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed tick history.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateTick inserts a tick record. CreatedAt defaults to now when zero.
func (r *SQLiteRepository) CreateTick(ctx context.Context, rec *TickRecord) error {
	rulesJSON, err := json.Marshal(nonNilRules(rec.Rules))
	if err != nil {
		return fmt.Errorf("marshalling rules: %w", err)
	}
	statusesJSON, err := json.Marshal(nonNilStatuses(rec.Statuses))
	if err != nil {
		return fmt.Errorf("marshalling statuses: %w", err)
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tick_history (` + tickColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.SimTime,
		rec.Temperature,
		rec.DevicesTotal,
		rec.DevicesOn,
		string(rulesJSON),
		string(statusesJSON),
		rec.DurationUS,
		rec.CreatedAt.UTC().Format(storedTimeLayout),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrTickExists
		}
		return fmt.Errorf("inserting tick: %w", err)
	}
	return nil
}

// GetTick retrieves one tick record by ID.
func (r *SQLiteRepository) GetTick(ctx context.Context, id string) (*TickRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tickColumns+` FROM tick_history WHERE id = ?`, id)
	rec, err := scanTick(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTickNotFound
		}
		return nil, fmt.Errorf("querying tick: %w", err)
	}
	return rec, nil
}

// ListTicks returns the most recent ticks, newest first.
func (r *SQLiteRepository) ListTicks(ctx context.Context, limit int) ([]TickRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tickColumns+` FROM tick_history ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying ticks: %w", err)
	}
	defer rows.Close()

	records := make([]TickRecord, 0)
	for rows.Next() {
		rec, scanErr := scanTick(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning tick: %w", scanErr)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ticks: %w", err)
	}
	return records, nil
}

// CountTicks returns the number of stored ticks.
func (r *SQLiteRepository) CountTicks(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tick_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting ticks: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTick(scanner rowScanner) (*TickRecord, error) {
	var rec TickRecord
	var rulesJSON, statusesJSON, createdAt string

	err := scanner.Scan(
		&rec.ID,
		&rec.SimTime,
		&rec.Temperature,
		&rec.DevicesTotal,
		&rec.DevicesOn,
		&rulesJSON,
		&statusesJSON,
		&rec.DurationUS,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if t, parseErr := time.Parse(storedTimeLayout, createdAt); parseErr == nil {
		rec.CreatedAt = t
	}
	if jsonErr := json.Unmarshal([]byte(rulesJSON), &rec.Rules); jsonErr != nil {
		return nil, fmt.Errorf("unmarshalling rules: %w", jsonErr)
	}
	if jsonErr := json.Unmarshal([]byte(statusesJSON), &rec.Statuses); jsonErr != nil {
		return nil, fmt.Errorf("unmarshalling statuses: %w", jsonErr)
	}
	return &rec, nil
}

func nonNilRules(r []RuleResult) []RuleResult {
	if r == nil {
		return []RuleResult{}
	}
	return r
}

func nonNilStatuses(s []device.StatusRecord) []device.StatusRecord {
	if s == nil {
		return []device.StatusRecord{}
	}
	return s
}

func isUniqueConstraintError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
