package device

import (
	"context"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"rfid-bridge/internal/punch"
)

// Sink: ポーラーが書き込む先（通常は staging.Sink）。
type Sink interface {
	Write(punches []punch.Punch) error
}

type IDGen interface {
	New() string
}

type ulidGen struct{}

func (ulidGen) New() string { return ulid.Make().String() }

// Poller: 一定間隔で端末の打刻バッファを取得し、前回テールとの差分を検出して
// 新規があればテール全量をステージングへ書き出す。
//
// カーソル（前回テール）はこのインスタンスだけが持つ。プロセス再起動で失われるが、
// 取り込みが冪等なので再処理されても行は増えない。
type Poller struct {
	client     Client
	sink       Sink
	tailLen    int
	onSnapshot func(ctx context.Context, pollID string)

	id IDGen

	prevTail []punch.Punch
	polled   bool

	stop chan struct{}
	done chan struct{}
}

// onSnapshot はステージング更新後に呼ばれる（取り込みのトリガ用、nil可）。
func NewPoller(client Client, sink Sink, tailLen int, onSnapshot func(ctx context.Context, pollID string)) *Poller {
	if tailLen <= 0 {
		tailLen = 5
	}
	return &Poller{
		client:     client,
		sink:       sink,
		tailLen:    tailLen,
		onSnapshot: onSnapshot,
		id:         ulidGen{},
	}
}

// Start: interval ごとに1回ポーリングする周期タスクを起動する。
func (p *Poller) Start(interval time.Duration) {
	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.pollOnce(context.Background())
			}
		}
	}()
}

// Stop: 次のティック前に停止する。実行中のポーリングは完走を待つ。
func (p *Poller) Stop() {
	close(p.stop)
	<-p.done
}

func (p *Poller) pollOnce(ctx context.Context) {
	pollID := p.id.New()

	logs, err := p.client.GetAttendances(ctx)
	if err != nil {
		// カーソルは温存。次回のポーリングで同じ差分を検出できる。
		log.Printf("[ERROR] poll %s: fetch attendances: %v", pollID, err)
		return
	}

	tail := tailOf(logs, p.tailLen)
	newPunches := diffBySN(tail, p.prevTail)

	firstPoll := !p.polled
	p.prevTail = tail
	p.polled = true

	if len(newPunches) == 0 {
		return
	}

	log.Printf("[INFO] poll %s: %d new punches (tail=%d)", pollID, len(newPunches), len(tail))

	// テール長Kを超えるバーストがあると中間の打刻は観測できない。
	// テールが丸ごと入れ替わっていたらその兆候なので運用者に知らせる。
	if !firstPoll && len(tail) == p.tailLen && len(newPunches) == p.tailLen {
		log.Printf("[WARN] poll %s: tail fully replaced; punches may have been missed (consider raising tail_length)", pollID)
	}

	// 新規分だけでなくテール全量で上書きする。取り込み側の重複排除が前提。
	if err := p.sink.Write(tail); err != nil {
		log.Printf("[ERROR] poll %s: staging write: %v", pollID, err)
		return
	}

	if p.onSnapshot != nil {
		p.onSnapshot(ctx, pollID)
	}
}

func tailOf(logs []punch.Punch, n int) []punch.Punch {
	if len(logs) <= n {
		return logs
	}
	return logs[len(logs)-n:]
}

// diffBySN: prev に同じ sn が無いものを「新規」とみなす。
// sn は端末が再利用しうるので、この比較は1回のポーリング内でしか意味を持たない。
func diffBySN(cur, prev []punch.Punch) []punch.Punch {
	seen := make(map[int64]struct{}, len(prev))
	for _, l := range prev {
		seen[l.SN] = struct{}{}
	}
	var fresh []punch.Punch
	for _, l := range cur {
		if _, ok := seen[l.SN]; !ok {
			fresh = append(fresh, l)
		}
	}
	return fresh
}
