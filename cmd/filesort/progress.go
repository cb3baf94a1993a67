package main

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"filesort/internal/organizer"
)

// progressReporter renders organizer progress as one bar per stage. Caption
// workers report concurrently, so updates are serialized.
type progressReporter struct {
	out io.Writer

	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	stage string
	done  int
}

func newProgressReporter(out io.Writer) *progressReporter {
	return &progressReporter{out: out}
}

func (p *progressReporter) update(ev organizer.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ev.Stage != p.stage || p.bar == nil {
		if p.bar != nil {
			_ = p.bar.Finish()
		}
		p.bar = progressbar.NewOptions(ev.Total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(ev.Stage),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		p.stage = ev.Stage
		p.done = 0
	}
	if ev.Done > p.done {
		p.done = ev.Done
		_ = p.bar.Set(ev.Done)
	}
}

func (p *progressReporter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
