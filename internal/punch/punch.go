package punch

import (
	"fmt"
	"time"
)

const (
	// MySQLのDATETIMEに入る文字列そのもの。重複判定もINSERTもこの形で揃える。
	CanonicalLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

// 端末から届く打刻レコード1件。ステージングファイルのJSONと同じフィールド名。
// sn は端末バッファ内での連番で、ポーリング時の差分検出にしか使わない。
type Punch struct {
	SN         int64  `json:"sn"`
	UserID     int64  `json:"user_id"`
	RecordTime string `json:"record_time"`
	IP         string `json:"ip,omitempty"`
}

// record_time として観測される表記ゆれ。端末ファームやブリッジの版で揺れる。
var recordTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// ParseRecordTime: record_time をローカル時刻として解釈する。
func ParseRecordTime(s string) (time.Time, error) {
	for _, layout := range recordTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("record_time を解釈できない: %q", s)
}

// Canonical: 秒精度に切り捨てた正規形。DATETIME列の分解能に合わせる。
func Canonical(t time.Time) string {
	return t.Truncate(time.Second).Format(CanonicalLayout)
}

// CivilDate: 日次集計のキーに使う暦日（ローカルタイムゾーン）。
func CivilDate(t time.Time) string {
	return t.Format(DateLayout)
}
