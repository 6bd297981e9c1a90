package solver

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configure one optimization request.
type Options struct {
	// MaxSolutions is the number of distinct feasible assignments to keep
	// (the K best by soft cost).
	MaxSolutions int
	// NodeBudget bounds the number of node expansions before the search
	// gives up. Exhausting the budget is reported as BudgetExhausted, never
	// as infeasibility.
	NodeBudget int
	// Workers > 1 explores disjoint first-student branches concurrently,
	// each with its own tracker and budget share, merged deterministically.
	Workers int
	Logger  logrus.FieldLogger

	warmStart []int
}

var DefaultOptions = Options{
	MaxSolutions: 3,
	NodeBudget:   200000,
	Workers:      1,
}

func (o Options) withDefaults() Options {
	if o.MaxSolutions <= 0 {
		o.MaxSolutions = DefaultOptions.MaxSolutions
	}
	if o.NodeBudget <= 0 {
		o.NodeBudget = DefaultOptions.NodeBudget
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
	return o
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Status is the definitive outcome of a search.
type Status int

const (
	// StatusFeasible: at least one assignment satisfying every hard
	// constraint was found.
	StatusFeasible Status = iota
	// StatusInfeasible: the search space was exhausted without finding one;
	// no assignment exists.
	StatusInfeasible
	// StatusBudgetExhausted: the budget or deadline cut the search before
	// any assignment was found. Inconclusive.
	StatusBudgetExhausted
)

func (s Status) String() string {
	switch s {
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusBudgetExhausted:
		return "budget_exhausted"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Solution is an immutable feasible assignment with its soft cost.
type Solution struct {
	Assignment Assignment `json:"assignment"`
	Cost       int        `json:"cost"`
	Feasible   bool       `json:"feasible"`

	rank int
}

// Result is the outcome of Optimize. Solutions are ranked by ascending cost,
// ties broken by discovery order. Complete is true when the search space was
// fully explored rather than cut by the budget or deadline.
type Result struct {
	Status    Status        `json:"status"`
	Solutions []Solution    `json:"solutions"`
	Complete  bool          `json:"complete"`
	Nodes     int           `json:"nodes"`
	Elapsed   time.Duration `json:"elapsed"`
	// Reused is set when Reoptimize kept the previous assignment instead of
	// searching.
	Reused bool `json:"reused,omitempty"`
}

// compiled is a constraint resolved to roster indices. b is -1 for
// single-student kinds.
type compiled struct {
	kind   string
	a, b   int
	weight int
}

func compile(roster Roster, cs ConstraintSet) (hard, soft []compiled, err error) {
	idx := roster.index()
	conv := func(c Constraint) (compiled, error) {
		a, ok := idx[c.StudentA]
		if !ok {
			return compiled{}, fmt.Errorf("%w: %q", ErrUnknownStudent, c.StudentA)
		}
		cp := compiled{kind: c.Kind, a: a, b: -1, weight: c.Weight}
		if c.Pair() {
			b, ok := idx[c.StudentB]
			if !ok {
				return compiled{}, fmt.Errorf("%w: %q", ErrUnknownStudent, c.StudentB)
			}
			cp.b = b
		}
		return cp, nil
	}
	for _, c := range cs.Hard {
		cp, err := conv(c)
		if err != nil {
			return nil, nil, err
		}
		hard = append(hard, cp)
	}
	for _, c := range cs.Soft {
		cp, err := conv(c)
		if err != nil {
			return nil, nil, err
		}
		soft = append(soft, cp)
	}
	return hard, soft, nil
}

type tracked struct {
	assign []int
	cost   int
	branch int
	order  int
}

func compareTracked(a, b tracked) int {
	if a.cost != b.cost {
		return a.cost - b.cost
	}
	if a.branch != b.branch {
		return a.branch - b.branch
	}
	return a.order - b.order
}

func solutionKey(assign []int) string {
	var buf strings.Builder
	for i, seat := range assign {
		if i > 0 {
			buf.WriteByte(';')
		}
		buf.WriteString(strconv.Itoa(seat))
	}
	return buf.String()
}

// tracker keeps the K best distinct assignments by (cost, discovery order).
// Memory stays bounded no matter how many assignments the search visits.
type tracker struct {
	k      int
	seen   map[string]bool
	sols   []tracked
	next   int
	branch int
}

func newTracker(k int) *tracker {
	return &tracker{k: k, seen: map[string]bool{}}
}

func (t *tracker) add(assign []int, cost int) {
	key := solutionKey(assign)
	if t.seen[key] {
		return
	}
	t.seen[key] = true
	t.sols = append(t.sols, tracked{
		assign: slices.Clone(assign),
		cost:   cost,
		branch: t.branch,
		order:  t.next,
	})
	t.next++
	slices.SortStableFunc(t.sols, compareTracked)
	if len(t.sols) > t.k {
		t.sols = t.sols[:t.k]
	}
}

type searchState struct {
	ctx    context.Context
	layout *Layout
	logger logrus.FieldLogger

	hard, soft []compiled
	hardBy     [][]int
	softBy     [][]int
	order      []int
	warm       []int

	assign   []int
	occupied []bool

	nodes   int
	budget  int
	cut     bool
	tracker *tracker
}

func newSearchState(ctx context.Context, layout *Layout, n int, hard, soft []compiled, opts Options) *searchState {
	s := &searchState{
		ctx:     ctx,
		layout:  layout,
		logger:  opts.Logger,
		hard:    hard,
		soft:    soft,
		hardBy:  make([][]int, n),
		softBy:  make([][]int, n),
		warm:    opts.warmStart,
		budget:  opts.NodeBudget,
		tracker: newTracker(opts.MaxSolutions),
	}
	for ci, c := range hard {
		s.hardBy[c.a] = append(s.hardBy[c.a], ci)
		if c.b >= 0 {
			s.hardBy[c.b] = append(s.hardBy[c.b], ci)
		}
	}
	for ci, c := range soft {
		s.softBy[c.a] = append(s.softBy[c.a], ci)
		if c.b >= 0 {
			s.softBy[c.b] = append(s.softBy[c.b], ci)
		}
	}

	// Most-constrained-first: students with more hard constraints are seated
	// earlier, ties in roster order.
	s.order = make([]int, n)
	for i := range s.order {
		s.order[i] = i
	}
	slices.SortStableFunc(s.order, func(a, b int) int {
		return len(s.hardBy[b]) - len(s.hardBy[a])
	})

	s.assign = make([]int, n)
	for i := range s.assign {
		s.assign[i] = -1
	}
	s.occupied = make([]bool, layout.NumSeats())
	return s
}

// clone shares the read-only model and returns fresh mutable search storage
// with its own tracker and budget.
func (s *searchState) clone(budget int) *searchState {
	c := &searchState{
		ctx:      s.ctx,
		layout:   s.layout,
		logger:   s.logger,
		hard:     s.hard,
		soft:     s.soft,
		hardBy:   s.hardBy,
		softBy:   s.softBy,
		order:    s.order,
		warm:     s.warm,
		budget:   budget,
		tracker:  newTracker(s.tracker.k),
		assign:   make([]int, len(s.assign)),
		occupied: make([]bool, len(s.occupied)),
	}
	for i := range c.assign {
		c.assign[i] = -1
	}
	return c
}

// expand charges one node against the budget and checks the deadline,
// reporting whether the search must stop.
func (s *searchState) expand() bool {
	if s.cut {
		return true
	}
	if s.ctx.Err() != nil || s.nodes >= s.budget {
		s.cut = true
		return true
	}
	s.nodes++
	return false
}

func softDetermined(c compiled, assign []int) bool {
	return assign[c.a] >= 0 && (c.b < 0 || assign[c.b] >= 0)
}

// candidates lists the free seats the student could take without violating a
// determined hard constraint, best-first: ascending provisional soft cost,
// ties by (row, column). A warm-start seat is promoted to the front.
func (s *searchState) candidates(st int) []int {
	type cand struct{ seat, score int }
	var cands []cand
	for seat := 0; seat < s.layout.NumSeats(); seat++ {
		if s.occupied[seat] {
			continue
		}
		s.assign[st] = seat
		ok := true
		for _, ci := range s.hardBy[st] {
			if violatesHardSeats(s.layout, s.hard[ci], s.assign) {
				ok = false
				break
			}
		}
		score := 0
		if ok {
			for _, ci := range s.softBy[st] {
				c := s.soft[ci]
				if softDetermined(c, s.assign) && softViolatedSeats(s.layout, c, s.assign) {
					score += c.weight
				}
			}
		}
		s.assign[st] = -1
		if ok {
			cands = append(cands, cand{seat: seat, score: score})
		}
	}
	slices.SortStableFunc(cands, func(a, b cand) int {
		if a.score != b.score {
			return a.score - b.score
		}
		return a.seat - b.seat
	})
	seats := make([]int, len(cands))
	for i, c := range cands {
		seats[i] = c.seat
	}
	if s.warm != nil && s.warm[st] >= 0 {
		if i := slices.Index(seats, s.warm[st]); i > 0 {
			seat := seats[i]
			copy(seats[1:i+1], seats[:i])
			seats[0] = seat
		}
	}
	return seats
}

// run assigns students from position pos onward, backtracking on dead ends.
// Complete assignments are recorded and treated as dead ends so enumeration
// continues.
func (s *searchState) run(pos int) {
	if s.cut {
		return
	}
	if pos == len(s.order) {
		cost := softCostSeats(s.layout, s.soft, s.assign)
		s.tracker.add(s.assign, cost)
		s.logger.Debugf("assignment found: cost=%d nodes=%d", cost, s.nodes)
		return
	}
	st := s.order[pos]
	for _, seat := range s.candidates(st) {
		if s.expand() {
			return
		}
		s.assign[st] = seat
		s.occupied[seat] = true
		s.run(pos + 1)
		s.occupied[seat] = false
		s.assign[st] = -1
		if s.cut {
			return
		}
	}
}

// Optimize searches for up to MaxSolutions distinct assignments of the roster
// to seats that satisfy every hard constraint, minimizing soft cost. The
// outcome taxonomy lives in Result.Status; an error is returned only for
// malformed input.
func Optimize(ctx context.Context, layout *Layout, roster Roster, cs ConstraintSet, opts Options) (*Result, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: nil layout", ErrInvalidLayout)
	}
	opts = opts.withDefaults()
	start := time.Now()

	hard, soft, err := compile(roster, cs)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger.WithFields(logrus.Fields{
		"students": len(roster),
		"seats":    layout.NumSeats(),
		"hard":     len(hard),
		"soft":     len(soft),
	})
	logger.Debug("starting seat assignment search")
	opts.Logger = logger

	if len(roster) > layout.NumSeats() {
		return &Result{
			Status:    StatusInfeasible,
			Solutions: []Solution{},
			Complete:  true,
			Elapsed:   time.Since(start),
		}, nil
	}

	base := newSearchState(ctx, layout, len(roster), hard, soft, opts)

	var sols []tracked
	var cut bool
	var nodes int
	if opts.Workers > 1 && len(base.order) > 0 {
		sols, cut, nodes = searchParallel(base, opts)
	} else {
		base.run(0)
		sols, cut, nodes = base.tracker.sols, base.cut, base.nodes
	}

	res := &Result{
		Solutions: make([]Solution, len(sols)),
		Complete:  !cut,
		Nodes:     nodes,
		Elapsed:   time.Since(start),
	}
	for i, ts := range sols {
		a := make(Assignment, len(ts.assign))
		for stIdx, seat := range ts.assign {
			a[roster[stIdx].ID] = layout.SeatAt(seat)
		}
		res.Solutions[i] = Solution{Assignment: a, Cost: ts.cost, Feasible: true, rank: i}
	}

	switch {
	case len(sols) > 0:
		res.Status = StatusFeasible
	case cut:
		res.Status = StatusBudgetExhausted
		res.Complete = false
	default:
		res.Status = StatusInfeasible
		res.Complete = true
	}
	logger.WithFields(logrus.Fields{
		"status":    res.Status.String(),
		"solutions": len(res.Solutions),
		"nodes":     res.Nodes,
		"complete":  res.Complete,
	}).Debug("search finished")
	return res, nil
}

// searchParallel partitions the first student's candidate seats across
// workers. Each worker owns its assignment storage, tracker, and budget
// share; the merge re-establishes the sequential discovery order so results
// match a single-worker run.
func searchParallel(base *searchState, opts Options) ([]tracked, bool, int) {
	first := base.order[0]
	cands := base.candidates(first)
	if len(cands) == 0 {
		return nil, false, 0
	}

	workers := min(opts.Workers, len(cands))
	share := opts.NodeBudget / workers
	if share < 1 {
		share = 1
	}

	states := make([]*searchState, workers)
	var wg sync.WaitGroup
	for wi := 0; wi < workers; wi++ {
		st := base.clone(share)
		states[wi] = st
		wg.Add(1)
		go func(wi int, st *searchState) {
			defer wg.Done()
			for bi := wi; bi < len(cands); bi += workers {
				if st.cut {
					return
				}
				st.tracker.branch = bi
				if st.expand() {
					return
				}
				seat := cands[bi]
				st.assign[first] = seat
				st.occupied[seat] = true
				st.run(1)
				st.occupied[seat] = false
				st.assign[first] = -1
			}
		}(wi, st)
	}
	wg.Wait()

	var all []tracked
	cut := false
	nodes := 0
	for _, st := range states {
		all = append(all, st.tracker.sols...)
		cut = cut || st.cut
		nodes += st.nodes
	}
	slices.SortStableFunc(all, compareTracked)

	seen := map[string]bool{}
	merged := all[:0]
	for _, ts := range all {
		key := solutionKey(ts.assign)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, ts)
		if len(merged) == opts.MaxSolutions {
			break
		}
	}
	return merged, cut, nodes
}
