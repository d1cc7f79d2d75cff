package split

// InputPin reads one matrix row.
type InputPin interface {
	IsHigh() bool
}

// OutputPin drives one matrix column.
type OutputPin interface {
	SetHigh()
	SetLow()
}

// Matrix scans a column-driven switch matrix, debouncing every position.
// Positions are flattened input-major: input 0 across all outputs first.
type Matrix struct {
	out        []OutputPin
	in         []InputPin
	valid      [][]bool
	debouncers [][]*Debouncer
}

// NewMatrix returns a matrix over the given pins with all positions valid.
func NewMatrix(out []OutputPin, in []InputPin) *Matrix {
	m := &Matrix{out: out, in: in}
	m.valid = make([][]bool, len(in))
	m.debouncers = make([][]*Debouncer, len(in))
	for j := range in {
		m.valid[j] = make([]bool, len(out))
		m.debouncers[j] = make([]*Debouncer, len(out))
		for i := range out {
			m.valid[j][i] = true
			m.debouncers[j][i] = NewDebouncer()
		}
	}
	return m
}

// DisableRange marks the flattened position range [start, end) as unpopulated
// so it never contributes to State and later positions pack down.
func (m *Matrix) DisableRange(start, end int) {
	idx := 0
	for j := range m.valid {
		for i := range m.valid[j] {
			if idx >= start && idx < end {
				m.valid[j][i] = false
			}
			idx++
		}
	}
}

// Update runs one scan pass: drive each column, sample every row.
func (m *Matrix) Update() {
	for i, col := range m.out {
		col.SetHigh()
		for j, row := range m.in {
			m.debouncers[j][i].Update(row.IsHigh())
		}
		col.SetLow()
	}
}

// State packs the populated positions' press bits, input-major, skipping
// unpopulated positions without leaving gaps.
func (m *Matrix) State() uint32 {
	var state uint32
	idx := 0
	for j := range m.debouncers {
		for i := range m.debouncers[j] {
			if !m.valid[j][i] {
				continue
			}
			if m.debouncers[j][i].IsPressed() {
				state |= 1 << idx
			}
			idx++
		}
	}
	return state
}
