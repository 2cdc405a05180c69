package checkinout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/oklog/ulid/v2"

	"rfid-bridge/internal/platform/db"
	"rfid-bridge/internal/punch"
)

// ===== Error model (users/summary と同型) =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}

// ===== インターフェース群 =====

// ユーザディレクトリ。未登録は sql.ErrNoRows を返す。
type UserDirectory interface {
	FindSSN(ctx context.Context, userID int64) (string, error)
}

type LogStore interface {
	Exists(ctx context.Context, ssn string, checktime string) (bool, error)
	Insert(ctx context.Context, ssn string, checktime string) error
}

type StagingReader interface {
	Read() ([]punch.Punch, error)
}

type IDGen interface {
	New() string
}

type ulidGen struct{}

func (ulidGen) New() string { return ulid.Make().String() }

// ===== Service本体 =====

type Service struct {
	conn    *sql.DB
	users   UserDirectory
	logs    LogStore
	staging StagingReader
	id      IDGen
}

func NewService(conn *sql.DB, staging StagingReader, users UserDirectory) *Service {
	return &Service{
		conn:    conn,
		users:   users,
		logs:    NewStore(conn),
		staging: staging,
		id:      ulidGen{},
	}
}

// IngestFromStaging: ステージングの打刻を1件ずつ tbl_checkinout へ取り込む。
// 1件の失敗はその1件のスキップで閉じ、バッチ全体は止めない。
// ステージング自体が読めない・壊れている場合だけバッチを放棄してエラーを返す。
func (s *Service) IngestFromStaging(ctx context.Context) (IngestResult, error) {
	res := IngestResult{BatchID: s.id.New()}

	punches, err := s.staging.Read()
	if err != nil {
		return res, fmt.Errorf("batch %s: %w", res.BatchID, err)
	}
	res.Total = len(punches)

	for _, p := range punches {
		switch s.ingestOne(ctx, res.BatchID, p) {
		case outcomeInserted:
			res.Inserted++
		case outcomeDuplicate:
			res.Duplicates++
		default:
			res.Skipped++
		}
	}

	log.Printf("[INFO] ingest %s: total=%d inserted=%d duplicates=%d skipped=%d",
		res.BatchID, res.Total, res.Inserted, res.Duplicates, res.Skipped)
	return res, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeInserted
	outcomeDuplicate
)

func (s *Service) ingestOne(ctx context.Context, batchID string, p punch.Punch) outcome {
	// 構造チェック。user_id と record_time のどちらが欠けても取り込めない。
	if p.UserID == 0 || p.RecordTime == "" {
		log.Printf("[WARN] ingest %s: invalid punch sn=%d (missing user_id or record_time), skipping", batchID, p.SN)
		return outcomeSkipped
	}

	// 端末ローカルID → SSN。未登録はエラーではない（登録経路が遅れているだけかもしれない）。
	ssn, err := s.users.FindSSN(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[INFO] ingest %s: no user with id=%d, skipping sn=%d", batchID, p.UserID, p.SN)
			return outcomeSkipped
		}
		log.Printf("[ERROR] ingest %s: resolve user id=%d: %v", batchID, p.UserID, err)
		return outcomeSkipped
	}

	// 正規形に落とす。重複判定もINSERTも必ずこの文字列で行う。
	t, err := punch.ParseRecordTime(p.RecordTime)
	if err != nil {
		log.Printf("[WARN] ingest %s: sn=%d: %v, skipping", batchID, p.SN, err)
		return outcomeSkipped
	}
	checktime := punch.Canonical(t)

	dup, err := s.logs.Exists(ctx, ssn, checktime)
	if err != nil {
		log.Printf("[ERROR] ingest %s: duplicate check SSN=%s: %v", batchID, ssn, err)
		return outcomeSkipped
	}
	if dup {
		log.Printf("[INFO] ingest %s: duplicate log for SSN=%s at %s, skipping", batchID, ssn, checktime)
		return outcomeDuplicate
	}

	if err := s.logs.Insert(ctx, ssn, checktime); err != nil {
		// 並行挿入とのレースでUNIQUE制約に負けた場合も重複扱い。
		if isDuplicateKey(err) {
			log.Printf("[INFO] ingest %s: lost insert race for SSN=%s at %s, treating as duplicate", batchID, ssn, checktime)
			return outcomeDuplicate
		}
		log.Printf("[ERROR] ingest %s: insert SSN=%s at %s: %v", batchID, ssn, checktime, err)
		return outcomeSkipped
	}

	log.Printf("[INFO] ingest %s: inserted log for SSN=%s at %s", batchID, ssn, checktime)
	return outcomeInserted
}

// GET /checkinouts
func (s *Service) List(ctx context.Context, q ListQuery) ([]CheckInOut, int64, error) {
	var (
		out   []CheckInOut
		total int64
	)
	err := db.ReadOnly(ctx, s.conn, func(ctx context.Context, tx db.DBTX) error {
		var err error
		out, total, err = NewStore(tx).List(ctx, q)
		return err
	})
	if err != nil {
		return nil, 0, ErrInternal("failed to list checkinout logs")
	}
	return out, total, nil
}

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}
