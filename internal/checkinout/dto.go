package checkinout

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

type ListQuery struct {
	SSN   *string
	From  *string // YYYY-MM-DD
	To    *string // YYYY-MM-DD
	Limit int
}

// 取り込み1バッチの結果。ログ突き合わせ用にバッチIDを含める。
type IngestResult struct {
	BatchID    string `json:"batch_id"`
	Total      int    `json:"total"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
	Skipped    int    `json:"skipped"`
}
