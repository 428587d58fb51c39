package main

import (
	"os"
	"sync"
	"time"

	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/schollz/progressbar/v3"
)

// progress renders transfer progress on stderr when it is a terminal.
type progress struct {
	mutex sync.Mutex
	bar   *progressbar.ProgressBar
}

func newProgress(description string) *progress {
	if !isTerminal(os.Stderr) {
		return &progress{}
	}
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { os.Stderr.WriteString("\n") }),
		progressbar.OptionFullWidth(),
	)
	return &progress{bar: bar}
}

func (p *progress) options() []option.TransferOption {
	if p.bar == nil {
		return nil
	}
	return []option.TransferOption{option.WithTransferProgress(200*time.Millisecond, p.update)}
}

func (p *progress) update(transferred, total int64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if total > 0 && p.bar.GetMax64() != total {
		p.bar.ChangeMax64(total)
	}
	p.bar.Set64(transferred)
}

func (p *progress) finish() {
	if p.bar == nil {
		return
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.bar.Finish()
}
