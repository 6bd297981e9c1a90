package solver

import (
	"errors"
	"fmt"
)

// Seat identifies a position in the classroom grid by (row, column).
// Row 0 is the front of the room.
type Seat struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s Seat) String() string {
	return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
}

// AdjacencyFunc reports whether two seats count as next to each other.
type AdjacencyFunc func(a, b Seat) bool

// EdgeAdjacency treats seats sharing an edge as adjacent.
func EdgeAdjacency(a, b Seat) bool {
	dr := abs(a.Row - b.Row)
	dc := abs(a.Col - b.Col)
	return dr+dc == 1
}

// DiagonalAdjacency treats the full 8-neighborhood as adjacent.
func DiagonalAdjacency(a, b Seat) bool {
	dr := abs(a.Row - b.Row)
	dc := abs(a.Col - b.Col)
	return dr <= 1 && dc <= 1 && dr+dc > 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// LayoutConfig describes room features that vary between real classrooms.
// Nil slices select the defaults: the door along the leftmost column, windows
// along the rightmost column, and the teacher at the front row. An explicitly
// empty (non-nil) slice means the room has none of that feature.
type LayoutConfig struct {
	DoorColumns   []int
	WindowColumns []int
	TeacherSeats  []Seat
	Adjacency     AdjacencyFunc
}

var ErrInvalidLayout = errors.New("invalid layout")

// Layout is an immutable classroom grid with per-seat attributes. Seats are
// indexed row-major, so ascending index order is (row, column) lexicographic.
type Layout struct {
	rows, cols int
	adjacency  AdjacencyFunc

	front   []bool
	back    []bool
	door    []bool
	window  []bool
	teacher []bool
	quiet   []bool
	adj     [][]int
}

// BuildLayout constructs a rows x cols layout. Fails with ErrInvalidLayout
// when either dimension is not positive or a configured feature falls outside
// the grid.
func BuildLayout(rows, cols int, cfg LayoutConfig) (*Layout, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d grid", ErrInvalidLayout, rows, cols)
	}

	l := &Layout{
		rows:      rows,
		cols:      cols,
		adjacency: cfg.Adjacency,
	}
	if l.adjacency == nil {
		l.adjacency = EdgeAdjacency
	}

	n := rows * cols
	l.front = make([]bool, n)
	l.back = make([]bool, n)
	l.door = make([]bool, n)
	l.window = make([]bool, n)
	l.teacher = make([]bool, n)
	l.quiet = make([]bool, n)
	l.adj = make([][]int, n)

	doorCols := cfg.DoorColumns
	if doorCols == nil {
		doorCols = []int{0}
	}
	windowCols := cfg.WindowColumns
	if windowCols == nil {
		windowCols = []int{cols - 1}
	}
	for _, c := range doorCols {
		if c < 0 || c >= cols {
			return nil, fmt.Errorf("%w: door column %d outside grid", ErrInvalidLayout, c)
		}
	}
	for _, c := range windowCols {
		if c < 0 || c >= cols {
			return nil, fmt.Errorf("%w: window column %d outside grid", ErrInvalidLayout, c)
		}
	}

	for i := 0; i < n; i++ {
		seat := l.SeatAt(i)
		l.front[i] = seat.Row == 0
		l.back[i] = seat.Row == rows-1
		for _, c := range doorCols {
			if seat.Col == c {
				l.door[i] = true
			}
		}
		for _, c := range windowCols {
			if seat.Col == c {
				l.window[i] = true
			}
		}
		for j := 0; j < n; j++ {
			if l.adjacency(seat, l.SeatAt(j)) {
				l.adj[i] = append(l.adj[i], j)
			}
		}
	}

	if cfg.TeacherSeats == nil {
		for i := 0; i < n; i++ {
			l.teacher[i] = l.front[i]
		}
	} else {
		for _, seat := range cfg.TeacherSeats {
			i, ok := l.Index(seat)
			if !ok {
				return nil, fmt.Errorf("%w: teacher seat %s outside grid", ErrInvalidLayout, seat)
			}
			l.teacher[i] = true
		}
	}

	// A seat is quiet when it is away from door traffic: neither near the
	// door itself nor bordering a near-door seat.
	for i := 0; i < n; i++ {
		l.quiet[i] = !l.door[i]
		for _, j := range l.adj[i] {
			if l.door[j] {
				l.quiet[i] = false
			}
		}
	}

	return l, nil
}

func (l *Layout) Rows() int     { return l.rows }
func (l *Layout) Cols() int     { return l.cols }
func (l *Layout) NumSeats() int { return l.rows * l.cols }

// SeatAt maps a row-major seat index back to its grid position.
func (l *Layout) SeatAt(i int) Seat {
	return Seat{Row: i / l.cols, Col: i % l.cols}
}

// Index maps a seat to its row-major index, reporting whether the seat lies
// inside the grid.
func (l *Layout) Index(s Seat) (int, bool) {
	if s.Row < 0 || s.Row >= l.rows || s.Col < 0 || s.Col >= l.cols {
		return 0, false
	}
	return s.Row*l.cols + s.Col, true
}

func (l *Layout) Contains(s Seat) bool {
	_, ok := l.Index(s)
	return ok
}

// Seats lists every seat in (row, column) order.
func (l *Layout) Seats() []Seat {
	seats := make([]Seat, l.NumSeats())
	for i := range seats {
		seats[i] = l.SeatAt(i)
	}
	return seats
}

func (l *Layout) IsFrontRow(s Seat) bool { return l.attr(l.front, s) }
func (l *Layout) IsBackRow(s Seat) bool  { return l.attr(l.back, s) }
func (l *Layout) NearDoor(s Seat) bool   { return l.attr(l.door, s) }
func (l *Layout) NearWindow(s Seat) bool { return l.attr(l.window, s) }
func (l *Layout) TeacherProximate(s Seat) bool { return l.attr(l.teacher, s) }
func (l *Layout) Quiet(s Seat) bool            { return l.attr(l.quiet, s) }

func (l *Layout) attr(set []bool, s Seat) bool {
	i, ok := l.Index(s)
	return ok && set[i]
}

// Adjacent reports whether two in-grid seats are adjacent under the layout's
// adjacency predicate.
func (l *Layout) Adjacent(a, b Seat) bool {
	return l.Contains(a) && l.Contains(b) && l.adjacency(a, b)
}

// AdjacentSeats returns the neighbors of a seat in (row, column) order.
func (l *Layout) AdjacentSeats(s Seat) []Seat {
	i, ok := l.Index(s)
	if !ok {
		return nil
	}
	seats := make([]Seat, len(l.adj[i]))
	for k, j := range l.adj[i] {
		seats[k] = l.SeatAt(j)
	}
	return seats
}

// hasAttr reports whether any seat in the layout carries the attribute.
func hasAttr(set []bool) bool {
	for _, v := range set {
		if v {
			return true
		}
	}
	return false
}

func (l *Layout) adjacentIdx(i, j int) bool {
	return l.adjacency(l.SeatAt(i), l.SeatAt(j))
}
