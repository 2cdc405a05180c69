package checkinout

import "time"

// tbl_checkinout の1行。(SSN, CHECKTIME) が永続的な同一性で、更新はされない。
type CheckInOut struct {
	ID        int64     `json:"id"`
	SSN       string    `json:"ssn"`
	CheckTime time.Time `json:"checktime"`
}
