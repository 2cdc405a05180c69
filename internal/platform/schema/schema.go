package schema

import (
	"context"
	"database/sql"
	"fmt"

	"rfid-bridge/internal/platform/db"
)

// 端末側ツールとの互換のためカラム名は既存スキーマのまま（privilige の綴りも含む）。
const (
	createUserTable = `
	CREATE TABLE IF NOT EXISTS tbl_user (
		id INT AUTO_INCREMENT PRIMARY KEY,
		SSN VARCHAR(20) NOT NULL UNIQUE,
		name VARCHAR(100) NOT NULL,
		Badgenumber VARCHAR(50),
		CardNo VARCHAR(50),
		privilige VARCHAR(50)
	)`

	createCheckInOutTable = `
	CREATE TABLE IF NOT EXISTS tbl_checkinout (
		id INT AUTO_INCREMENT PRIMARY KEY,
		SSN VARCHAR(20) NOT NULL,
		CHECKTIME DATETIME NOT NULL,
		UNIQUE (SSN, CHECKTIME),
		FOREIGN KEY (SSN) REFERENCES tbl_user(SSN) ON DELETE CASCADE
	)`
)

// Setup: テーブルが無ければ作成する。失敗は起動エラー（呼び出し側でfatal）。
func Setup(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, createUserTable); err != nil {
		return fmt.Errorf("tbl_user の作成に失敗: %w", err)
	}
	if _, err := conn.ExecContext(ctx, createCheckInOutTable); err != nil {
		return fmt.Errorf("tbl_checkinout の作成に失敗: %w", err)
	}
	return nil
}

// SeedDemo: 各テーブルが空のときだけデモデータを投入する。
// 件数チェックとINSERTを同一Txで行うので再実行しても増殖しない。
func SeedDemo(ctx context.Context, conn *sql.DB) (seededUsers, seededLogs bool, err error) {
	err = db.RunInTx(ctx, conn, nil, func(ctx context.Context, tx db.DBTX) error {
		var count int64

		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tbl_user`).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			_, err := tx.ExecContext(ctx, `
			INSERT INTO tbl_user (SSN, name, Badgenumber, CardNo, privilige) VALUES
			('123-45-6789', 'John Doe', 'BN123', 'CN001', 'Admin'),
			('987-65-4321', 'Jane Smith', 'BN456', 'CN002', 'User')`)
			if err != nil {
				return err
			}
			seededUsers = true
		}

		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tbl_checkinout`).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			_, err := tx.ExecContext(ctx, `
			INSERT INTO tbl_checkinout (SSN, CHECKTIME) VALUES
			('123-45-6789', '2024-10-01 08:00:00'),
			('987-65-4321', '2024-10-01 09:00:00')`)
			if err != nil {
				return err
			}
			seededLogs = true
		}
		return nil
	})
	return seededUsers, seededLogs, err
}
