package probe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGExplain probes a live Postgres database for execution plans and index
// usage statistics. The pool connects lazily, so construction never touches
// the network; unreachable databases surface per probe as ErrUnavailable.
type PGExplain struct {
	pool *pgxpool.Pool
}

// NewPGExplain creates a probe over the given connection string.
func NewPGExplain(ctx context.Context, dsn string) (*PGExplain, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	return &PGExplain{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (p *PGExplain) Close() {
	p.pool.Close()
}

// planNode mirrors the relevant fields of Postgres EXPLAIN (FORMAT JSON)
// output. Plans nests arbitrarily deep.
type planNode struct {
	NodeType  string     `json:"Node Type"`
	TotalCost float64    `json:"Total Cost"`
	Plans     []planNode `json:"Plans"`
}

type explainEntry struct {
	Plan          planNode `json:"Plan"`
	ExecutionTime float64  `json:"Execution Time"`
}

// Explain runs EXPLAIN (ANALYZE, FORMAT JSON) for query and distills the
// plan tree into a PlanSummary.
func (p *PGExplain) Explain(ctx context.Context, query string) (PlanSummary, error) {
	var raw string
	err := p.pool.QueryRow(ctx, "EXPLAIN (ANALYZE, FORMAT JSON) "+query).Scan(&raw)
	if err != nil {
		return PlanSummary{}, Unavailable("explain", err)
	}
	return parseExplain([]byte(raw))
}

func parseExplain(raw []byte) (PlanSummary, error) {
	var entries []explainEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return PlanSummary{}, &MalformedOutputError{Source: "explain", Detail: err.Error()}
	}
	if len(entries) == 0 {
		return PlanSummary{}, &MalformedOutputError{Source: "explain", Detail: "empty plan list"}
	}
	e := entries[0]
	return PlanSummary{
		TotalCost:         e.Plan.TotalCost,
		ExecutionTimeMs:   e.ExecutionTime,
		HasSequentialScan: hasSeqScan(e.Plan),
	}, nil
}

// hasSeqScan walks the plan tree looking for a sequential-scan node at any
// depth. A match anywhere flags the whole plan.
func hasSeqScan(n planNode) bool {
	if n.NodeType == "Seq Scan" {
		return true
	}
	for _, child := range n.Plans {
		if hasSeqScan(child) {
			return true
		}
	}
	return false
}

// IndexUsage returns lifetime scan counts for every user index, so callers
// can spot indexes that have never been used.
func (p *PGExplain) IndexUsage(ctx context.Context) ([]IndexStat, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT schemaname, relname, indexrelname, idx_scan
		   FROM pg_stat_user_indexes
		  ORDER BY schemaname, relname, indexrelname`)
	if err != nil {
		return nil, Unavailable("index usage", err)
	}
	defer rows.Close()

	var stats []IndexStat
	for rows.Next() {
		var s IndexStat
		if err := rows.Scan(&s.Schema, &s.Table, &s.Index, &s.ScanCount); err != nil {
			return nil, &MalformedOutputError{Source: "index usage", Detail: err.Error()}
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, Unavailable("index usage", err)
	}
	return stats, nil
}
