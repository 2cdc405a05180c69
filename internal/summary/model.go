package summary

import "time"

// (ユーザ, 暦日) ごとの導出レコード。永続化はしない。
// CHECKIN/CHECKOUT のキー名は端末側ツールの出力に合わせている。
type DailySummary struct {
	UserID      int64       `json:"user_id"`
	Date        string      `json:"date"` // YYYY-MM-DD（ローカル暦日）
	SN          []int64     `json:"sn"`
	RecordTimes []time.Time `json:"record_time"`
	IP          string      `json:"ip,omitempty"`
	CheckIn     time.Time   `json:"CHECKIN"`
	CheckOut    time.Time   `json:"CHECKOUT"`
}
