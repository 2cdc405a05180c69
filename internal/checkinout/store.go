package checkinout

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type DBTX interface {
	ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, q string, args ...any) *sql.Row
}

type Store struct{ db DBTX }

func NewStore(db DBTX) *Store { return &Store{db: db} }

// Exists: 同一 (SSN, 正規形CHECKTIME) の行があるか。
// 重複排除の「礼儀」チェック。最終的な防壁はUNIQUE制約の側。
func (s *Store) Exists(ctx context.Context, ssn string, checktime string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
	SELECT 1 FROM tbl_checkinout
	WHERE SSN = ? AND CHECKTIME = ? LIMIT 1`, ssn, checktime,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert: CHECKTIME は正規形文字列のまま渡す（DATETIMEへはMySQL側で解釈させる）。
func (s *Store) Insert(ctx context.Context, ssn string, checktime string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO tbl_checkinout (SSN, CHECKTIME) VALUES (?, ?)`, ssn, checktime)
	return err
}

// List: 条件に応じて動的WHERE + ORDER + LIMIT
func (s *Store) List(ctx context.Context, q ListQuery) ([]CheckInOut, int64, error) {
	var (
		buf    bytes.Buffer
		args   []any
		wheres []string
	)

	buf.WriteString(`
	SELECT id, SSN, CHECKTIME
	FROM tbl_checkinout
	`)
	if q.SSN != nil && *q.SSN != "" {
		wheres = append(wheres, "SSN = ?")
		args = append(args, *q.SSN)
	}
	if q.From != nil && *q.From != "" {
		wheres = append(wheres, "CHECKTIME >= ?")
		args = append(args, *q.From)
	}
	if q.To != nil && *q.To != "" {
		wheres = append(wheres, "CHECKTIME < DATE_ADD(?, INTERVAL 1 DAY)")
		args = append(args, *q.To)
	}
	if len(wheres) > 0 {
		buf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}

	buf.WriteString(" ORDER BY CHECKTIME DESC, id DESC")

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	buf.WriteString(fmt.Sprintf(" LIMIT %d", limit))

	rows, err := s.db.QueryContext(ctx, buf.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []CheckInOut
	for rows.Next() {
		var r CheckInOut
		if err := rows.Scan(&r.ID, &r.SSN, &r.CheckTime); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// COUNT（ORDER BY より前までを再構築）
	var cntBuf bytes.Buffer
	cntBuf.WriteString("SELECT COUNT(*) FROM tbl_checkinout")
	if len(wheres) > 0 {
		cntBuf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, cntBuf.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
