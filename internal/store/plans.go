package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/plan"
)

// PlanRecord is a logged plan.
type PlanRecord struct {
	ID          string `json:"id"`
	Entity      string `json:"entity"`
	Mode        string `json:"mode"`
	ContentHash string `json:"content_hash"`
	Explain     string `json:"explain"`
}

// Run is one logged execution of a plan.
type Run struct {
	Seq        int64  `json:"seq"`
	PlanID     string `json:"plan_id"`
	RowCount   int    `json:"row_count"`
	ResultHash string `json:"result_hash"`
	Rows       string `json:"rows"` // canonical JSON array
}

// ErrNotFound is returned when a plan is not in the log.
var ErrNotFound = errors.New("not found")

// WritePlan logs a plan. Writing the same plan twice is a no-op.
func (s *Store) WritePlan(ctx context.Context, p *plan.Plan) error {
	body := plan.Render(p)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plans (id, entity, mode, content_hash, explain)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		p.ID.String(),
		p.Entity,
		p.Mode.String(),
		hex.EncodeToString(ir.HashWithDomain(ir.DomainPlan, []byte(body))),
		body,
	)
	if err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}

// ReadPlan reads a logged plan by ID.
func (s *Store) ReadPlan(ctx context.Context, id string) (PlanRecord, error) {
	var r PlanRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, entity, mode, content_hash, explain FROM plans WHERE id = ?
	`, id).Scan(&r.ID, &r.Entity, &r.Mode, &r.ContentHash, &r.Explain)
	if errors.Is(err, sql.ErrNoRows) {
		return PlanRecord{}, fmt.Errorf("read plan %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return PlanRecord{}, fmt.Errorf("read plan %s: %w", id, err)
	}
	return r, nil
}

// WriteRun logs the output of one execution and returns its sequence
// number. The plan must be logged first.
func (s *Store) WriteRun(ctx context.Context, p *plan.Plan, rows []*ir.Container) (int64, error) {
	canonical, err := ir.MarshalCanonicalList(rows)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}
	hash, err := ir.ResultHash(rows)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (plan_id, row_count, result_hash, rows)
		VALUES (?, ?, ?, ?)
	`, p.ID.String(), len(rows), hash, string(canonical))
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}
	return seq, nil
}

// ReadRuns returns the runs of a plan in seq order.
func (s *Store) ReadRuns(ctx context.Context, planID string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, plan_id, row_count, result_hash, rows
		FROM runs
		WHERE plan_id = ?
		ORDER BY seq ASC
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.Seq, &r.PlanID, &r.RowCount, &r.ResultHash, &r.Rows); err != nil {
			return nil, fmt.Errorf("read runs: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	return out, nil
}
