package importer

import (
	"log"
	"time"
)

// progress logs insert throughput every n rows.
type progress struct {
	every int
	now   func() time.Time

	start    time.Time
	last     time.Time
	lastRows int
	reports  int
}

func newProgress(every int, now func() time.Time) *progress {
	t := now()
	return &progress{every: every, now: now, start: t, last: t}
}

// tick is called with the running insert total after each row.
func (p *progress) tick(total int) {
	if p.every <= 0 || total%p.every != 0 {
		return
	}
	t := p.now()
	elapsed := t.Sub(p.start)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(total) / elapsed.Seconds()
	}
	p.reports++
	log.Printf(
		"insert #%d: rps=%.0f inserted=%d total_inserted=%d elapsed=%s since_last=%s",
		p.reports,
		rate,
		total-p.lastRows,
		total,
		elapsed.Truncate(time.Millisecond),
		t.Sub(p.last).Truncate(time.Millisecond),
	)
	p.last = t
	p.lastRows = total
}
