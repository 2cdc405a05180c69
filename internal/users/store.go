package users

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, q string, args ...any) *sql.Row
}

type Store struct{ db DBTX }

func NewStore(db DBTX) *Store { return &Store{db: db} }

// FindSSN: 端末ローカルのユーザID → SSN。未登録なら sql.ErrNoRows。
func (s *Store) FindSSN(ctx context.Context, userID int64) (string, error) {
	var ssn string
	err := s.db.QueryRowContext(ctx,
		`SELECT SSN FROM tbl_user WHERE id = ?`, userID,
	).Scan(&ssn)
	if err != nil {
		return "", err
	}
	return ssn, nil
}

func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, SSN, name, Badgenumber, CardNo, privilige
	FROM tbl_user
	ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]User, 0, 16)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.SSN, &u.Name, &u.Badgenumber, &u.CardNo, &u.Privilige); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
