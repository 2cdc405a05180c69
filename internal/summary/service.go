package summary

import (
	"log"
	"sort"
	"time"

	"rfid-bridge/internal/punch"
)

type StagingReader interface {
	Read() ([]punch.Punch, error)
}

type Service struct {
	staging StagingReader
}

func NewService(staging StagingReader) *Service {
	return &Service{staging: staging}
}

// FromStaging: 現在のステージングスナップショットを日次集計する。
func (s *Service) FromStaging() ([]DailySummary, error) {
	punches, err := s.staging.Read()
	if err != nil {
		return nil, err
	}
	return Reduce(punches), nil
}

type groupKey struct {
	userID int64
	date   string
}

type entry struct {
	sn int64
	at time.Time
	ip string
}

// Reduce: 打刻を (user_id, ローカル暦日) でまとめ、最早をCHECKIN・最遅をCHECKOUTとする。
// 1件だけの日は CHECKOUT = CHECKIN。入力順に依らず同じ結果になる（出力順は不定）。
func Reduce(punches []punch.Punch) []DailySummary {
	groups := make(map[groupKey][]entry)

	for _, p := range punches {
		t, err := punch.ParseRecordTime(p.RecordTime)
		if err != nil {
			log.Printf("[WARN] reduce: sn=%d: %v, skipping", p.SN, err)
			continue
		}
		key := groupKey{userID: p.UserID, date: punch.CivilDate(t)}
		groups[key] = append(groups[key], entry{sn: p.SN, at: t, ip: p.IP})
	}

	out := make([]DailySummary, 0, len(groups))
	for key, es := range groups {
		// 同時刻はsnで順序を固定して決定的にする
		sort.Slice(es, func(i, j int) bool {
			if es[i].at.Equal(es[j].at) {
				return es[i].sn < es[j].sn
			}
			return es[i].at.Before(es[j].at)
		})

		ds := DailySummary{
			UserID: key.userID,
			Date:   key.date,
			IP:     es[0].ip,
		}
		for _, e := range es {
			ds.SN = append(ds.SN, e.sn)
			ds.RecordTimes = append(ds.RecordTimes, e.at)
		}
		ds.CheckIn = es[0].at
		ds.CheckOut = es[len(es)-1].at
		out = append(out, ds)
	}
	return out
}
