package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModelRendersResult(t *testing.T) {
	m := model{title: "seed apply", startedAt: time.Now()}
	next, cmd := m.Update(resultMsg{details: []string{"created user a@example.com"}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	view := next.View()
	if !strings.Contains(view, "OK") || !strings.Contains(view, "created user a@example.com") {
		t.Fatalf("unexpected view: %q", view)
	}
}

func TestModelRendersFailure(t *testing.T) {
	m := model{title: "seed stats", startedAt: time.Now()}
	next, _ := m.Update(resultMsg{err: errors.New("connection refused")})
	if view := next.View(); !strings.Contains(view, "FAILED") || !strings.Contains(view, "connection refused") {
		t.Fatalf("unexpected view: %q", view)
	}
}

func TestModelCtrlCCancels(t *testing.T) {
	m := model{title: "loadgen run", startedAt: time.Now()}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if res := next.(model); !errors.Is(res.err, context.Canceled) || !res.done {
		t.Fatalf("expected cancellation, got %+v", res)
	}
}

func TestModelTickAdvancesSpinner(t *testing.T) {
	start := time.Now()
	m := model{title: "x", startedAt: start}
	next, cmd := m.Update(tickMsg(start.Add(time.Second)))
	res := next.(model)
	if res.frame != 1 || res.elapsed != time.Second || cmd == nil {
		t.Fatalf("unexpected tick state: frame=%d elapsed=%v", res.frame, res.elapsed)
	}
	if !strings.Contains(res.View(), "running") {
		t.Fatalf("expected running view, got %q", res.View())
	}
}
