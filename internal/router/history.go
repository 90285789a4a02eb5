package router

// history is a fixed-capacity ring; the oldest entry is evicted first.
// Callers hold Router.mu.
type history struct {
	entries []HistoryEntry
	next    int
	full    bool
}

func newHistory(limit int) *history {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &history{entries: make([]HistoryEntry, limit)}
}

func (h *history) add(e HistoryEntry) {
	h.entries[h.next] = e
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
}

func (h *history) len() int {
	if h.full {
		return len(h.entries)
	}
	return h.next
}

// last returns up to n most recent entries, oldest first. n <= 0 means all.
func (h *history) last(n int) []HistoryEntry {
	size := h.len()
	if n <= 0 || n > size {
		n = size
	}

	out := make([]HistoryEntry, 0, n)
	start := h.next - n
	if start < 0 {
		start += len(h.entries)
	}
	for i := 0; i < n; i++ {
		out = append(out, h.entries[(start+i)%len(h.entries)])
	}
	return out
}
