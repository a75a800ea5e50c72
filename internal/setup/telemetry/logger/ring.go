package logger

// lineRing keeps the most recent lines written to a log file.
type lineRing struct {
	lines []string
	head  int // next write position
	size  int
	seen  int // lines added since the last rotation
}

func newLineRing(capacity int) *lineRing {
	return &lineRing{lines: make([]string, capacity)}
}

func (r *lineRing) add(line string) {
	r.lines[r.head] = line
	r.head = (r.head + 1) % len(r.lines)

	if r.size < len(r.lines) {
		r.size++
	}
	r.seen++
}

// snapshot returns the kept lines oldest first.
func (r *lineRing) snapshot() []string {
	if r.size == 0 {
		return nil
	}

	out := make([]string, r.size)
	start := (r.head - r.size + len(r.lines)) % len(r.lines)

	for i := range r.size {
		out[i] = r.lines[(start+i)%len(r.lines)]
	}

	return out
}
