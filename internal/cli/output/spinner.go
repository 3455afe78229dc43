package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a message on w while a request is in flight.
type Spinner struct {
	w        io.Writer
	message  string
	interval time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	exited    chan struct{}
}

// NewSpinner creates a spinner. Nothing is written until Start.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:        w,
		message:  message,
		interval: 100 * time.Millisecond,
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

func (s *Spinner) run() {
	defer close(s.exited)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for i := 0; ; i++ {
		fmt.Fprintf(s.w, "\r%s %s", spinnerFrames[i%len(spinnerFrames)], s.message)
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	s.finish("\r\033[K")
}

// Success ends the animation with a check mark.
func (s *Spinner) Success(message string) {
	s.finish(fmt.Sprintf("\r✓ %s\n", message))
}

// Fail ends the animation with a cross.
func (s *Spinner) Fail(message string) {
	s.finish(fmt.Sprintf("\r✗ %s\n", message))
}

func (s *Spinner) finish(last string) {
	s.stopOnce.Do(func() {
		started := true
		s.startOnce.Do(func() { started = false })
		close(s.done)
		if started {
			<-s.exited
		}
		fmt.Fprint(s.w, last)
	})
}
