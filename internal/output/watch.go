package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// EventSeverity indicates the importance of a feed entry.
type EventSeverity int

const (
	SeverityInfo EventSeverity = iota
	SeverityWarning
	SeverityError
)

// FeedEvent is one line of the watch feed.
type FeedEvent struct {
	Timestamp time.Time
	Source    string
	Message   string
	Severity  EventSeverity
}

// Feed keeps the newest MaxEvents entries of a watch session and is safe
// for use from subscription callbacks.
type Feed struct {
	mu        sync.Mutex
	events    []FeedEvent
	maxEvents int
}

func NewFeed(maxEvents int) *Feed {
	if maxEvents <= 0 {
		maxEvents = 20
	}
	return &Feed{maxEvents: maxEvents}
}

// Add prepends an event and trims the feed.
func (f *Feed) Add(source, message string, severity EventSeverity) FeedEvent {
	ev := FeedEvent{Timestamp: time.Now(), Source: source, Message: message, Severity: severity}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append([]FeedEvent{ev}, f.events...)
	if len(f.events) > f.maxEvents {
		f.events = f.events[:f.maxEvents]
	}
	return ev
}

// Events returns the feed, newest first.
func (f *Feed) Events() []FeedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FeedEvent(nil), f.events...)
}

// RenderFeedEvent prints one feed line.
func RenderFeedEvent(w io.Writer, ev FeedEvent) {
	msg := ev.Message
	switch ev.Severity {
	case SeverityWarning:
		msg = yellow(msg)
	case SeverityError:
		msg = red(msg)
	}
	fmt.Fprintf(w, "%s %s %s\n", dim(ev.Timestamp.Format("15:04:05")), padRight(cyan(ev.Source), 12), msg)
}

// ClearScreen resets an ANSI terminal.
func ClearScreen(w io.Writer) {
	fmt.Fprint(w, "\033[H\033[2J")
}

// RenderFeed redraws the whole feed.
func RenderFeed(w io.Writer, title string, f *Feed) {
	ClearScreen(w)
	fmt.Fprintf(w, "%s  %s\n\n", bold(title), dim(time.Now().Format("15:04:05")))
	for _, ev := range f.Events() {
		RenderFeedEvent(w, ev)
	}
}
