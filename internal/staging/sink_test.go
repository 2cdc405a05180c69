package staging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfid-bridge/internal/punch"
)

func testSink(t *testing.T) *Sink {
	t.Helper()
	return NewSink(filepath.Join(t.TempDir(), "staging.json"))
}

func TestSinkRoundTrip(t *testing.T) {
	s := testSink(t)

	in := []punch.Punch{
		{SN: 10, UserID: 1, RecordTime: "2024-10-01T08:00:00", IP: "192.168.68.201"},
		{SN: 11, UserID: 2, RecordTime: "2024-10-01T09:00:00"},
	}
	require.NoError(t, s.Write(in))

	out, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSinkReadMissingFile(t *testing.T) {
	s := testSink(t)

	out, err := s.Read()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSinkReadCorruptFile(t *testing.T) {
	s := testSink(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	_, err := s.Read()
	assert.Error(t, err)
}

func TestSinkWriteReplacesSnapshot(t *testing.T) {
	s := testSink(t)

	require.NoError(t, s.Write([]punch.Punch{
		{SN: 1, UserID: 1, RecordTime: "2024-10-01T08:00:00"},
		{SN: 2, UserID: 1, RecordTime: "2024-10-01T09:00:00"},
	}))
	require.NoError(t, s.Write([]punch.Punch{
		{SN: 3, UserID: 2, RecordTime: "2024-10-01T10:00:00"},
	}))

	out, err := s.Read()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(3), out[0].SN)

	// 一時ファイルが残っていないこと
	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSinkWriteEmptySnapshot(t *testing.T) {
	s := testSink(t)

	require.NoError(t, s.Write(nil))
	out, err := s.Read()
	require.NoError(t, err)
	assert.Empty(t, out)
}
