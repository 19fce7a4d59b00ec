package style

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var frames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧"}

// Spinner shows an animated progress line on a TTY while a stage runs.
// On non-TTY writers it prints the initial message once and stays quiet.
type Spinner struct {
	w     io.Writer
	mu    sync.Mutex
	msg   string
	done  chan struct{}
	wg    sync.WaitGroup
	isTTY bool
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// StartSpinner begins displaying an animated spinner with the given message.
// Call Stop when the operation completes.
func StartSpinner(w io.Writer, msg string) *Spinner {
	s := &Spinner{
		w:     w,
		msg:   msg,
		done:  make(chan struct{}),
		isTTY: IsTerminal(w),
	}

	if !s.isTTY {
		fmt.Fprintf(w, "%s\n", msg)
		return s
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r\033[K%s %s", Dim.Render(frames[i%len(frames)]), s.msg)
			s.mu.Unlock()
			select {
			case <-s.done:
				fmt.Fprintf(s.w, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()

	return s
}

// Update replaces the spinner message, e.g. with a record counter.
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	if !s.isTTY {
		return
	}
	close(s.done)
	s.wg.Wait()
}
