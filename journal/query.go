package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetFill returns a single fill record by ID.
func (j *SQLite) GetFill(fillID string) (FillRecord, error) {
	var rec FillRecord

	row := j.db.QueryRow(`
		SELECT fill_id, run_id, symbol, side, price, quantity, source, time, status, reason
		FROM fills
		WHERE fill_id = ?`, fillID)

	err := row.Scan(
		&rec.FillID,
		&rec.RunID,
		&rec.Symbol,
		&rec.Side,
		&rec.Price,
		&rec.Quantity,
		&rec.Source,
		&rec.Time,
		&rec.Status,
		&rec.Reason,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return FillRecord{}, fmt.Errorf("fill %q not found", fillID)
		}
		return FillRecord{}, err
	}
	return rec, nil
}

// ListFills returns all fills for a run in chronological order.
func (j *SQLite) ListFills(runID string) ([]FillRecord, error) {
	rows, err := j.db.Query(`
		SELECT fill_id, run_id, symbol, side, price, quantity, source, time, status, reason
		FROM fills
		WHERE run_id = ?
		ORDER BY time ASC, fill_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFills(rows)
}

// ListFillsBetween returns fills across all runs within [start, end).
func (j *SQLite) ListFillsBetween(start, end time.Time) ([]FillRecord, error) {
	rows, err := j.db.Query(`
		SELECT fill_id, run_id, symbol, side, price, quantity, source, time, status, reason
		FROM fills
		WHERE time >= ? AND time < ?
		ORDER BY time ASC, fill_id ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFills(rows)
}

// ListEquity returns the equity curve for a run in chronological order.
func (j *SQLite) ListEquity(runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT time, run_id, symbol, cash, quantity, realized_pnl, unrealized_pnl, equity
		FROM equity
		WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(
			&e.Time,
			&e.RunID,
			&e.Symbol,
			&e.Cash,
			&e.Quantity,
			&e.RealizedPnL,
			&e.UnrealizedPnL,
			&e.Equity,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanFills(rows *sql.Rows) ([]FillRecord, error) {
	var out []FillRecord
	for rows.Next() {
		var rec FillRecord
		if err := rows.Scan(
			&rec.FillID,
			&rec.RunID,
			&rec.Symbol,
			&rec.Side,
			&rec.Price,
			&rec.Quantity,
			&rec.Source,
			&rec.Time,
			&rec.Status,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
