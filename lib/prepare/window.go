// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prepare

// Window is a fixed-size trailing window over a stream of power
// samples. The zero value is not usable; use NewWindow.
type Window struct {
	size      int
	threshold int

	// ring holds the last size samples; sample i lives at i%size.
	ring  []int
	count int

	// maxIndex and minIndex are absolute sample indices, always inside
	// the current window.
	maxIndex int
	minIndex int
}

// NewWindow returns a Window of size samples that reports stability
// when the spread of a full window is at most threshold. Size must be
// at least 1.
func NewWindow(size, threshold int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{size: size, threshold: threshold, ring: make([]int, size)}
}

func (w *Window) at(index int) int { return w.ring[index%w.size] }

// Push appends sample and reports whether the window is now full and
// its spread is within the threshold.
func (w *Window) Push(sample int) bool {
	index := w.count
	if index == 0 {
		w.maxIndex, w.minIndex = 0, 0
	} else {
		// Compare before the write below overwrites the oldest slot,
		// which may hold the current extremum.
		if sample > w.at(w.maxIndex) {
			w.maxIndex = index
		}
		if sample < w.at(w.minIndex) {
			w.minIndex = index
		}
	}
	w.ring[index%w.size] = sample
	w.count++

	start := w.count - w.size
	if start > 0 {
		if w.maxIndex < start {
			w.maxIndex = w.rescan(start, func(candidate, best int) bool { return candidate > best })
		}
		if w.minIndex < start {
			w.minIndex = w.rescan(start, func(candidate, best int) bool { return candidate < best })
		}
	}
	return w.Stable()
}

// rescan finds the extremum of the window beginning at start. Ties
// keep the oldest index, matching the incremental update.
func (w *Window) rescan(start int, better func(candidate, best int) bool) int {
	best := start
	for index := start + 1; index < w.count; index++ {
		if better(w.at(index), w.at(best)) {
			best = index
		}
	}
	return best
}

// Full reports whether size samples have been pushed.
func (w *Window) Full() bool { return w.count >= w.size }

// Count returns the total number of samples pushed.
func (w *Window) Count() int { return w.count }

// Max returns the largest sample in the window. It is 0 before the
// first Push.
func (w *Window) Max() int {
	if w.count == 0 {
		return 0
	}
	return w.at(w.maxIndex)
}

// Min returns the smallest sample in the window. It is 0 before the
// first Push.
func (w *Window) Min() int {
	if w.count == 0 {
		return 0
	}
	return w.at(w.minIndex)
}

// Spread returns Max - Min.
func (w *Window) Spread() int { return w.Max() - w.Min() }

// Stable reports whether the window is full and its spread is within
// the threshold.
func (w *Window) Stable() bool {
	return w.Full() && w.Spread() <= w.threshold
}
