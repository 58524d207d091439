package postgres

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	selectServerVersion = `SELECT current_setting('server_version'), current_database()`
	selectTableStats    = `
SELECT relname, n_live_tup
FROM pg_stat_user_tables
ORDER BY relname`
)

type (
	Status struct {
		Connection ConnectionStatus `json:"connection"`
		Server     ServerStatus     `json:"server"`
		Tables     []TableStatus    `json:"tables"`
		Pool       *PoolStatus      `json:"pool,omitempty"`
	}
	ConnectionStatus struct {
		State string `json:"state"`
		DSN   string `json:"dsn"`
	}
	ServerStatus struct {
		Version  string `json:"version"`
		Database string `json:"database"`
	}
	TableStatus struct {
		Name string `json:"name"`
		Rows int64  `json:"rows"`
	}
	PoolStatus struct {
		TotalConns    int32 `json:"totalConns"`
		IdleConns     int32 `json:"idleConns"`
		AcquiredConns int32 `json:"acquiredConns"`
		MaxConns      int32 `json:"maxConns"`
		AcquireCount  int64 `json:"acquireCount"`
	}
)

// Inspector reports database health for the debug endpoint.
type Inspector struct {
	db   DB
	pool *pgxpool.Pool
	dsn  string
}

// NewInspector takes the pool separately so pool counters are reported only
// when the DB is a real pool.
func NewInspector(db DB, pool *pgxpool.Pool, dsn string) *Inspector {
	return &Inspector{db: db, pool: pool, dsn: redactDSN(dsn)}
}

func (i *Inspector) Status(ctx context.Context) (*Status, error) {
	st := &Status{
		Connection: ConnectionStatus{State: "connected", DSN: i.dsn},
		Tables:     []TableStatus{},
	}

	if err := i.db.QueryRow(ctx, selectServerVersion).Scan(&st.Server.Version, &st.Server.Database); err != nil {
		st.Connection.State = "disconnected"
		return st, fmt.Errorf("query server version: %w", err)
	}

	rows, err := i.db.Query(ctx, selectTableStats)
	if err != nil {
		return st, fmt.Errorf("query table stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t TableStatus
		if err = rows.Scan(&t.Name, &t.Rows); err != nil {
			return st, err
		}
		st.Tables = append(st.Tables, t)
	}
	if err = rows.Err(); err != nil {
		return st, err
	}

	if i.pool != nil {
		s := i.pool.Stat()
		st.Pool = &PoolStatus{
			TotalConns:    s.TotalConns(),
			IdleConns:     s.IdleConns(),
			AcquiredConns: s.AcquiredConns(),
			MaxConns:      s.MaxConns(),
			AcquireCount:  s.AcquireCount(),
		}
	}

	return st, nil
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return ""
	}
	return u.Redacted()
}
