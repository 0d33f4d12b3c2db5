package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

// sinceTimer shows how long ago the last command was sent
type sinceTimer struct {
	last time.Time
	mtx  sync.Mutex
	text *canvas.Text
}

func newSinceTimer() *sinceTimer {
	return &sinceTimer{
		text: canvas.NewText(formatSince(0, false), nil),
	}
}

func (t *sinceTimer) Set(last time.Time) {
	t.mtx.Lock()
	t.last = last
	t.mtx.Unlock()
}

func (t *sinceTimer) elapsed(now time.Time) (time.Duration, bool) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.last.IsZero() {
		return 0, false
	}
	return now.Sub(t.last), true
}

// Go refreshes the text every second until ctx is done
func (t *sinceTimer) Go(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				elapsed, ok := t.elapsed(now)
				fyne.Do(func() {
					t.text.Text = formatSince(elapsed, ok)
					t.text.Refresh()
				})
			}
		}
	}()
}

func formatSince(elapsed time.Duration, ok bool) string {
	if !ok {
		return "last command: --:--"
	}
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60
	return fmt.Sprintf("last command: %02d:%02d", minutes, seconds)
}
