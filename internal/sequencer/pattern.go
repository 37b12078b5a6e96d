package sequencer

import "sync"

// Pattern is a grid of cells: each row is an index into the step
// frequencies, each column a step in time. It is safe to edit while a
// Sequencer is playing it.
type Pattern struct {
	mu    sync.RWMutex
	rows  int
	steps int
	cells []bool
}

func NewPattern(rows, steps int) *Pattern {
	if rows < 1 {
		rows = 1
	}
	if steps < 1 {
		steps = 1
	}
	return &Pattern{rows: rows, steps: steps, cells: make([]bool, rows*steps)}
}

// NewRun returns a pattern that plays each row once in ascending order.
func NewRun(rows int) *Pattern {
	p := NewPattern(rows, rows)
	for i := 0; i < p.rows; i++ {
		p.cells[i*p.steps+i] = true
	}
	return p
}

func (p *Pattern) Rows() int  { return p.rows }
func (p *Pattern) Steps() int { return p.steps }

func (p *Pattern) inRange(row, step int) bool {
	return row >= 0 && row < p.rows && step >= 0 && step < p.steps
}

func (p *Pattern) Set(row, step int, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inRange(row, step) {
		p.cells[row*p.steps+step] = on
	}
}

func (p *Pattern) Toggle(row, step int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inRange(row, step) {
		p.cells[row*p.steps+step] = !p.cells[row*p.steps+step]
	}
}

func (p *Pattern) On(row, step int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.inRange(row, step) && p.cells[row*p.steps+step]
}

// Column returns the rows switched on at step, ascending.
func (p *Pattern) Column(step int) []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []int
	if step < 0 || step >= p.steps {
		return out
	}
	for row := 0; row < p.rows; row++ {
		if p.cells[row*p.steps+step] {
			out = append(out, row)
		}
	}
	return out
}

func (p *Pattern) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.cells)
}
