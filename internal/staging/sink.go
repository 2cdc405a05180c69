package staging

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"rfid-bridge/internal/punch"
)

// Sink: ポーラーが書き、インジェスターとレデューサーが読む中間ファイル。
// 書き込みは一時ファイル→renameで、読む側が途中状態を見ることはない。
type Sink struct {
	path string
}

func NewSink(path string) *Sink {
	return &Sink{path: path}
}

func (s *Sink) Path() string { return s.path }

// Write: スナップショット全量で上書きする（差分ではなく端末の直近テールそのもの）。
func (s *Sink) Write(punches []punch.Punch) error {
	buf, err := json.MarshalIndent(punches, "", "  ")
	if err != nil {
		return fmt.Errorf("ステージングのエンコード失敗: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成失敗: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ステージングの書き込み失敗: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ステージングの差し替え失敗: %w", err)
	}
	return nil
}

// Read: スナップショットを読み出す。ファイル未作成は空バッチ扱い。
func (s *Sink) Read() ([]punch.Punch, error) {
	buf, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("ステージングの読み込み失敗: %w", err)
	}

	var punches []punch.Punch
	if err := json.Unmarshal(buf, &punches); err != nil {
		return nil, fmt.Errorf("ステージングのパース失敗: %w", err)
	}
	return punches, nil
}
