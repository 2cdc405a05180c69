package users

// tbl_user の行。登録・編集は別経路（端末側ツール）で、ここでは読み取りのみ。
type User struct {
	ID          int64   `json:"id"`
	SSN         string  `json:"ssn"`
	Name        string  `json:"name"`
	Badgenumber *string `json:"badge_number,omitempty"`
	CardNo      *string `json:"card_no,omitempty"`
	Privilige   *string `json:"privilege,omitempty"`
}
