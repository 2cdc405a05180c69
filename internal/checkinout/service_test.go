package checkinout

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfid-bridge/internal/punch"
)

// ===== fakes =====

type fakeDirectory struct {
	ssns map[int64]string
	err  error
}

func (f *fakeDirectory) FindSSN(ctx context.Context, userID int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	ssn, ok := f.ssns[userID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return ssn, nil
}

type fakeLog struct {
	rows      map[[2]string]struct{}
	raceOn    bool // Exists を素通りさせてUNIQUE制約側で弾く挙動の再現
	insertErr error
}

func newFakeLog() *fakeLog {
	return &fakeLog{rows: map[[2]string]struct{}{}}
}

func (f *fakeLog) Exists(ctx context.Context, ssn, checktime string) (bool, error) {
	if f.raceOn {
		return false, nil
	}
	_, ok := f.rows[[2]string{ssn, checktime}]
	return ok, nil
}

func (f *fakeLog) Insert(ctx context.Context, ssn, checktime string) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	key := [2]string{ssn, checktime}
	if _, ok := f.rows[key]; ok {
		return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	}
	f.rows[key] = struct{}{}
	return nil
}

type fakeStaging struct {
	punches []punch.Punch
	err     error
}

func (f *fakeStaging) Read() ([]punch.Punch, error) { return f.punches, f.err }

type fixedID struct{}

func (fixedID) New() string { return "01TESTBATCH" }

func newTestService(staging StagingReader, dir UserDirectory, logs LogStore) *Service {
	return &Service{users: dir, logs: logs, staging: staging, id: fixedID{}}
}

var testDir = &fakeDirectory{ssns: map[int64]string{1: "123-45-6789", 2: "987-65-4321"}}

// ===== tests =====

func TestIngestFirstPunch(t *testing.T) {
	logs := newFakeLog()
	svc := newTestService(&fakeStaging{punches: []punch.Punch{
		{SN: 10, UserID: 1, RecordTime: "2024-10-01T08:00:00"},
	}}, testDir, logs)

	res, err := svc.IngestFromStaging(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Inserted)
	assert.Zero(t, res.Duplicates)
	assert.Zero(t, res.Skipped)
	assert.Contains(t, logs.rows, [2]string{"123-45-6789", "2024-10-01 08:00:00"})
	assert.Len(t, logs.rows, 1)
}

func TestIngestIsIdempotent(t *testing.T) {
	logs := newFakeLog()
	st := &fakeStaging{punches: []punch.Punch{
		{SN: 10, UserID: 1, RecordTime: "2024-10-01T08:00:00"},
		{SN: 11, UserID: 2, RecordTime: "2024-10-01T09:00:00"},
	}}
	svc := newTestService(st, testDir, logs)

	for i := 0; i < 3; i++ {
		_, err := svc.IngestFromStaging(context.Background())
		require.NoError(t, err)
	}

	// 何度流しても (SSN, 正規形CHECKTIME) ごとに1行のまま
	assert.Len(t, logs.rows, 2)

	res, err := svc.IngestFromStaging(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.Equal(t, 2, res.Duplicates)
}

func TestIngestUnknownUserSkipped(t *testing.T) {
	logs := newFakeLog()
	svc := newTestService(&fakeStaging{punches: []punch.Punch{
		{SN: 11, UserID: 999, RecordTime: "2024-10-01T09:00:00"},
		{SN: 12, UserID: 1, RecordTime: "2024-10-01T10:00:00"},
	}}, testDir, logs)

	res, err := svc.IngestFromStaging(context.Background())
	require.NoError(t, err)

	// 未登録ユーザはエラーではなくスキップ。バッチは続行する。
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Inserted)
	assert.Len(t, logs.rows, 1)
}

func TestIngestMalformedPunchesSkipped(t *testing.T) {
	tests := []struct {
		name string
		p    punch.Punch
	}{
		{name: "missing user_id", p: punch.Punch{SN: 12, RecordTime: "2024-10-01T10:00"}},
		{name: "missing record_time", p: punch.Punch{SN: 13, UserID: 1}},
		{name: "unparseable record_time", p: punch.Punch{SN: 14, UserID: 1, RecordTime: "yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := newFakeLog()
			svc := newTestService(&fakeStaging{punches: []punch.Punch{tt.p}}, testDir, logs)

			res, err := svc.IngestFromStaging(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, res.Skipped)
			assert.Empty(t, logs.rows)
		})
	}
}

func TestIngestLostInsertRaceIsDuplicate(t *testing.T) {
	logs := newFakeLog()
	logs.rows[[2]string{"123-45-6789", "2024-10-01 08:00:00"}] = struct{}{}
	logs.raceOn = true // 礼儀チェックはすり抜け、INSERTがUNIQUE制約に負ける

	svc := newTestService(&fakeStaging{punches: []punch.Punch{
		{SN: 10, UserID: 1, RecordTime: "2024-10-01T08:00:00"},
	}}, testDir, logs)

	res, err := svc.IngestFromStaging(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Duplicates)
	assert.Zero(t, res.Inserted)
}

func TestIngestStoreErrorSkipsPunchOnly(t *testing.T) {
	logs := newFakeLog()
	logs.insertErr = errors.New("query timeout")

	svc := newTestService(&fakeStaging{punches: []punch.Punch{
		{SN: 10, UserID: 1, RecordTime: "2024-10-01T08:00:00"},
		{SN: 11, UserID: 2, RecordTime: "2024-10-01T09:00:00"},
	}}, testDir, logs)

	res, err := svc.IngestFromStaging(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Skipped)
}

func TestIngestDirectoryErrorSkipsPunchOnly(t *testing.T) {
	logs := newFakeLog()
	svc := newTestService(&fakeStaging{punches: []punch.Punch{
		{SN: 10, UserID: 1, RecordTime: "2024-10-01T08:00:00"},
	}}, &fakeDirectory{err: errors.New("connection reset")}, logs)

	res, err := svc.IngestFromStaging(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, logs.rows)
}

func TestIngestAbandonsUnreadableBatch(t *testing.T) {
	svc := newTestService(&fakeStaging{err: errors.New("parse error")}, testDir, newFakeLog())

	_, err := svc.IngestFromStaging(context.Background())
	assert.Error(t, err)
}

func TestIngestSubSecondPunchesCollapse(t *testing.T) {
	logs := newFakeLog()
	svc := newTestService(&fakeStaging{punches: []punch.Punch{
		{SN: 20, UserID: 1, RecordTime: "2024-10-01T08:00:00.100000"},
		{SN: 21, UserID: 1, RecordTime: "2024-10-01T08:00:00.900000"},
	}}, testDir, logs)

	res, err := svc.IngestFromStaging(context.Background())
	require.NoError(t, err)

	// 秒精度に正規化されるので同一秒内の2打刻は1行に潰れる
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Duplicates)
	assert.Len(t, logs.rows, 1)
}
