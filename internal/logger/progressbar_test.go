package logger

import (
	"strings"
	"sync"
	"testing"
)

func TestProgressBarRender(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		width   int
		want    string
	}{
		{"empty", 0, 10, 10, "[          ] 0/10 (0%)"},
		{"half", 5, 10, 10, "[=====     ] 5/10 (50%)"},
		{"complete", 10, 10, 10, "[==========] 10/10 (100%)"},
		{"zero total", 0, 0, 10, "[          ] 0/0 (0%)"},
		{"over total", 15, 10, 10, "[==========] 15/10 (100%)"},
		{"narrow", 1, 4, 4, "[=   ] 1/4 (25%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := NewProgressBar(tt.total, tt.width, false)
			pb.Update(tt.current)
			if got := pb.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgressBarPrefixAndMessage(t *testing.T) {
	pb := NewProgressBar(10, 10, false)
	pb.Update(5)
	pb.SetPrefix("Scanning ")
	pb.SetMessage("3 seqs found")

	got := pb.Render()
	want := "Scanning [=====     ] 5/10 (50%) 3 seqs found"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestProgressBarColor(t *testing.T) {
	pb := NewProgressBar(10, 10, true)
	pb.Update(5)
	if got := pb.Render(); !strings.HasPrefix(got, "\033[36m") {
		t.Errorf("in-progress bar should be cyan, got %q", got)
	}

	pb.Update(10)
	if got := pb.Render(); !strings.HasPrefix(got, "\033[32m") {
		t.Errorf("complete bar should be green, got %q", got)
	}
}

func TestProgressBarIncrement(t *testing.T) {
	pb := NewProgressBar(5, 10, false)
	pb.Increment()
	pb.Increment()
	if pb.Current() != 2 {
		t.Errorf("expected current 2, got %d", pb.Current())
	}
}

func TestProgressBarSetTotal(t *testing.T) {
	pb := NewProgressBar(0, 10, false)
	pb.SetTotal(4)
	pb.Update(1)
	if pb.Total() != 4 {
		t.Errorf("expected total 4, got %d", pb.Total())
	}
	if pb.Percentage() != 25 {
		t.Errorf("expected 25%%, got %d%%", pb.Percentage())
	}
}

func TestProgressBarMinimumWidth(t *testing.T) {
	pb := NewProgressBar(10, 0, false)
	got := pb.Render()
	if !strings.HasPrefix(got, "[          ]") {
		t.Errorf("zero width should fall back to default, got %q", got)
	}
}

func TestProgressBarConcurrentUpdates(t *testing.T) {
	pb := NewProgressBar(100, 20, false)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				pb.Increment()
				pb.Render()
			}
		}()
	}
	wg.Wait()

	if pb.Current() != 100 {
		t.Errorf("expected current 100, got %d", pb.Current())
	}
	if pb.Percentage() != 100 {
		t.Errorf("expected 100%%, got %d%%", pb.Percentage())
	}
}

func TestClampPercent(t *testing.T) {
	tests := []struct {
		current int
		total   int
		want    int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 10, 0},
		{5, 10, 50},
		{10, 10, 100},
		{20, 10, 100},
		{-5, 10, 0},
		{1, 3, 33},
	}

	for _, tt := range tests {
		if got := clampPercent(tt.current, tt.total); got != tt.want {
			t.Errorf("clampPercent(%d, %d) = %d, want %d", tt.current, tt.total, got, tt.want)
		}
	}
}
