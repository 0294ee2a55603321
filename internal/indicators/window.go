package indicators

// Window is a fixed-capacity FIFO of prices. Push is O(1); the oldest value
// is evicted once the window is full.
type Window struct {
	buf   []float64
	start int
	n     int
}

func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]float64, capacity)}
}

func (w *Window) Push(v float64) {
	if w.n < len(w.buf) {
		w.buf[(w.start+w.n)%len(w.buf)] = v
		w.n++
		return
	}
	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
}

func (w *Window) Len() int { return w.n }
func (w *Window) Cap() int { return len(w.buf) }

// Values copies the window oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, w.n)
	for i := range w.n {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

// History keeps one Window per configured symbol. The symbol set is fixed at
// construction. Not safe for concurrent use; Engine serializes access.
type History struct {
	capacity int
	symbols  []string
	windows  map[string]*Window
}

func NewHistory(symbols []string, capacity int) *History {
	h := &History{
		capacity: capacity,
		symbols:  append([]string(nil), symbols...),
		windows:  make(map[string]*Window, len(symbols)),
	}
	for _, s := range symbols {
		h.windows[s] = NewWindow(capacity)
	}
	return h
}

// Append records price for symbol. It reports false for unknown symbols.
func (h *History) Append(symbol string, price float64) bool {
	w, ok := h.windows[symbol]
	if !ok {
		return false
	}
	w.Push(price)
	return true
}

// Snapshot returns a copy of the symbol's window; unknown symbols yield an
// empty slice.
func (h *History) Snapshot(symbol string) []float64 {
	w, ok := h.windows[symbol]
	if !ok {
		return []float64{}
	}
	return w.Values()
}

func (h *History) Len(symbol string) int {
	if w, ok := h.windows[symbol]; ok {
		return w.Len()
	}
	return 0
}

func (h *History) Symbols() []string { return append([]string(nil), h.symbols...) }
func (h *History) Capacity() int     { return h.capacity }
