package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gookit/color"

	"lapor-chat/internal/render"
)

// terminal owns stdout and the input lines. Alerts and confirmations go
// through it so output from the feed goroutine never interleaves mid-line.
type terminal struct {
	mu    sync.Mutex
	out   io.Writer
	lines chan string
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	t := &terminal{out: out, lines: make(chan string)}
	go func() {
		defer close(t.lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			t.lines <- sc.Text()
		}
	}()
	return t
}

func (t *terminal) Lines() <-chan string {
	return t.lines
}

func (t *terminal) println(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, s)
}

func (t *terminal) Info(s string) {
	t.println(color.Yellow.Sprint(s))
}

func (t *terminal) Alert(message string) {
	t.println(color.Red.Sprint("⚠ " + message))
}

// Confirm reads the next input line as the answer. Only the input loop calls
// it, so it never races the loop for a line.
func (t *terminal) Confirm(ctx context.Context, title, message string) (bool, error) {
	t.println(color.Bold.Sprint(title) + " " + message + " [y/N]")
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line, ok := <-t.lines:
		if !ok {
			return false, io.EOF
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "ya", nil
	}
}

// PrintFeed prints the room oldest first so the newest bubble sits right
// above the prompt. Numbers count from the newest message, as /hapus expects.
func (t *terminal) PrintFeed(views []render.View) {
	var b strings.Builder
	b.WriteString(color.Gray.Sprint("──────── ruang obrolan ────────") + "\n")
	for i := len(views) - 1; i >= 0; i-- {
		v := views[i]
		ts := v.Timestamp
		if ts == "" {
			ts = "--:--:--"
		}
		style := color.Cyan
		if v.Mine {
			style = color.Green
		}
		content := v.Content
		switch v.Kind {
		case render.KindImage:
			content = "🖼  " + v.Content
		case render.KindUnknown:
			content = color.Gray.Sprint("(kosong)")
		}
		fmt.Fprintf(&b, "%3d %s %s\n", i+1, color.Gray.Sprint(ts), style.Sprint(content))
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, b.String())
}
