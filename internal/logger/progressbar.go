package logger

import (
	"fmt"
	"sync"
)

// ProgressBar renders an ASCII progress bar for directory processing, with
// an optional trailing message ("12 seqs found"). Safe for concurrent use;
// scan workers update it from multiple goroutines.
type ProgressBar struct {
	current     int
	total       int
	width       int
	enableColor bool
	prefix      string
	message     string
	mu          sync.RWMutex
}

// NewProgressBar creates a progress bar with the given total and width.
func NewProgressBar(total, width int, enableColor bool) *ProgressBar {
	if width < 1 {
		width = 10
	}
	return &ProgressBar{
		total:       total,
		width:       width,
		enableColor: enableColor,
	}
}

// Update sets the current progress value.
func (pb *ProgressBar) Update(current int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current = current
}

// Increment advances the current progress by 1.
func (pb *ProgressBar) Increment() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current++
}

// SetTotal replaces the total; the directory count is not known until
// phase 1 completes.
func (pb *ProgressBar) SetTotal(total int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.total = total
}

// SetPrefix sets the text shown before the bar.
func (pb *ProgressBar) SetPrefix(prefix string) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.prefix = prefix
}

// SetMessage sets the text shown after the counter.
func (pb *ProgressBar) SetMessage(message string) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.message = message
}

// Current returns the current progress value.
func (pb *ProgressBar) Current() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.current
}

// Total returns the total progress value.
func (pb *ProgressBar) Total() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.total
}

// Percentage returns the progress percentage (0-100).
func (pb *ProgressBar) Percentage() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return clampPercent(pb.current, pb.total)
}

// Render generates the ASCII progress bar string.
func (pb *ProgressBar) Render() string {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	perc := clampPercent(pb.current, pb.total)
	filled := (perc * pb.width) / 100
	if filled > pb.width {
		filled = pb.width
	}

	bar := make([]byte, 0, pb.width+2)
	bar = append(bar, '[')
	for i := 0; i < pb.width; i++ {
		if i < filled {
			bar = append(bar, '=')
		} else {
			bar = append(bar, ' ')
		}
	}
	bar = append(bar, ']')

	result := fmt.Sprintf("%s%s %d/%d (%d%%)", pb.prefix, bar, pb.current, pb.total, perc)
	if pb.message != "" {
		result += " " + pb.message
	}

	if pb.enableColor && perc < 100 {
		result = fmt.Sprintf("\033[36m%s\033[0m", result) // Cyan for in-progress
	} else if pb.enableColor {
		result = fmt.Sprintf("\033[32m%s\033[0m", result) // Green for complete
	}
	return result
}

func clampPercent(current, total int) int {
	if total == 0 {
		return 0
	}
	perc := (current * 100) / total
	if perc > 100 {
		return 100
	}
	if perc < 0 {
		return 0
	}
	return perc
}
