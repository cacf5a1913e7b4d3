package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordFill(f FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(fill_id, run_id, symbol, side, price, quantity, source, time, status, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.FillID, f.RunID, f.Symbol, f.Side, f.Price,
		f.Quantity, f.Source, f.Time, f.Status, f.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, run_id, symbol, cash, quantity, realized_pnl, unrealized_pnl, equity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Time, e.RunID, e.Symbol, e.Cash, e.Quantity,
		e.RealizedPnL, e.UnrealizedPnL, e.Equity,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
