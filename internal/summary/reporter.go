package summary

import (
	"log"
	"sort"
	"time"
)

// Reporter: 一定間隔でステージングを集計してログへ出す周期タスク。
// 運用者がtailするだけで当日の出退勤を追えるようにするためのもの。
type Reporter struct {
	svc *Service

	stop chan struct{}
	done chan struct{}
}

func NewReporter(svc *Service) *Reporter {
	return &Reporter{svc: svc}
}

func (r *Reporter) Start(interval time.Duration) {
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				r.reportOnce()
			}
		}
	}()
}

func (r *Reporter) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Reporter) reportOnce() {
	summaries, err := r.svc.FromStaging()
	if err != nil {
		log.Printf("[ERROR] report: %v", err)
		return
	}
	if len(summaries) == 0 {
		return
	}

	// 読みやすいよう出力だけ並べる（集計結果自体の順序は不定）
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].UserID == summaries[j].UserID {
			return summaries[i].Date < summaries[j].Date
		}
		return summaries[i].UserID < summaries[j].UserID
	})
	for _, ds := range summaries {
		log.Printf("[INFO] report: user=%d date=%s checkin=%s checkout=%s punches=%d",
			ds.UserID, ds.Date,
			ds.CheckIn.Format("15:04:05"), ds.CheckOut.Format("15:04:05"), len(ds.SN))
	}
}
