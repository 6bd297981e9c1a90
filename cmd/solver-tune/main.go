package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"seatplan/solver"
)

type problemData struct {
	Layout struct {
		Rows          int           `json:"rows"`
		Columns       int           `json:"columns"`
		DoorColumns   []int         `json:"door_columns,omitempty"`
		WindowColumns []int         `json:"window_columns,omitempty"`
		TeacherSeats  []solver.Seat `json:"teacher_seats,omitempty"`
		Adjacency     string        `json:"adjacency,omitempty"`
	} `json:"layout"`
	Students    []solver.Student `json:"students"`
	Constraints []solver.Record  `json:"constraints"`
}

func solutionKey(a solver.Assignment) string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var buf strings.Builder
	for _, id := range ids {
		seat := a[id]
		buf.WriteString(id)
		buf.WriteByte('=')
		buf.WriteString(strconv.Itoa(seat.Row))
		buf.WriteByte(',')
		buf.WriteString(strconv.Itoa(seat.Col))
		buf.WriteByte(';')
	}
	return buf.String()
}

type runResult struct {
	status    solver.Status
	bestCost  int
	nodes     int
	solutions []string
	elapsed   time.Duration
}

func printStats(label string, results []runResult, runs int) {
	statuses := map[string]int{}
	costs := map[int]int{}
	solutionSets := map[string]int{}
	runKeys := map[string]int{}
	var totalTime time.Duration
	var totalNodes int

	for _, r := range results {
		totalTime += r.elapsed
		totalNodes += r.nodes
		statuses[r.status.String()]++
		if r.status == solver.StatusFeasible {
			costs[r.bestCost]++
		}
		for _, key := range r.solutions {
			solutionSets[key]++
		}
		runKeys[strings.Join(r.solutions, "|")]++
	}

	fmt.Printf("--- %s ---\n", label)
	fmt.Printf("  avg time: %v\n", totalTime/time.Duration(runs))
	fmt.Printf("  avg nodes: %d\n", totalNodes/runs)

	fmt.Printf("  status distribution:\n")
	for status, count := range statuses {
		fmt.Printf("    %s: %d/%d runs\n", status, count, runs)
	}

	var costList []struct {
		cost  int
		count int
	}
	for c, n := range costs {
		costList = append(costList, struct {
			cost  int
			count int
		}{c, n})
	}
	sort.Slice(costList, func(i, j int) bool { return costList[i].cost < costList[j].cost })
	fmt.Printf("  best-cost distribution:\n")
	for _, cc := range costList {
		fmt.Printf("    cost %d: %d/%d runs (%.0f%%)\n", cc.cost, cc.count, runs, float64(cc.count)/float64(runs)*100)
	}

	fmt.Printf("  unique solutions seen: %d\n", len(solutionSets))
	fmt.Printf("  deterministic: %v (%d distinct run outputs)\n", len(runKeys) == 1, len(runKeys))
	fmt.Println()
}

func main() {
	file := flag.String("file", "problem.json", "problem JSON file")
	runs := flag.Int("runs", 20, "number of solver runs per parameter set")
	budgets := flag.String("budgets", "50000,200000", "comma-separated node budgets")
	maxSolutions := flag.String("k", "3", "comma-separated solution limits")
	workers := flag.String("workers", "1", "comma-separated worker counts")
	flag.Parse()

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading problem: %v\n", err)
		os.Exit(1)
	}
	var p problemData
	if err := json.Unmarshal(data, &p); err != nil {
		fmt.Fprintf(os.Stderr, "decoding problem: %v\n", err)
		os.Exit(1)
	}

	cfg := solver.LayoutConfig{
		DoorColumns:   p.Layout.DoorColumns,
		WindowColumns: p.Layout.WindowColumns,
		TeacherSeats:  p.Layout.TeacherSeats,
	}
	if p.Layout.Adjacency == "diagonal" {
		cfg.Adjacency = solver.DiagonalAdjacency
	}
	layout, err := solver.BuildLayout(p.Layout.Rows, p.Layout.Columns, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building layout: %v\n", err)
		os.Exit(1)
	}
	roster := solver.Roster(p.Students)
	cs, err := solver.ParseConstraints(p.Constraints, roster)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parsing constraints: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Students: %d, Seats: %d, Hard: %d, Soft: %d\n", len(roster), layout.NumSeats(), len(cs.Hard), len(cs.Soft))
	fmt.Printf("Runs per config: %d\n\n", *runs)

	for _, budget := range parseIntList(*budgets) {
		for _, k := range parseIntList(*maxSolutions) {
			for _, w := range parseIntList(*workers) {
				opts := solver.Options{
					MaxSolutions: k,
					NodeBudget:   budget,
					Workers:      w,
				}
				var results []runResult
				for ri := 0; ri < *runs; ri++ {
					start := time.Now()
					res, err := solver.Optimize(context.Background(), layout, roster, cs, opts)
					elapsed := time.Since(start)
					if err != nil {
						fmt.Fprintf(os.Stderr, "optimize: %v\n", err)
						os.Exit(1)
					}
					r := runResult{status: res.Status, nodes: res.Nodes, elapsed: elapsed}
					if len(res.Solutions) > 0 {
						r.bestCost = res.Solutions[0].Cost
						for _, sol := range res.Solutions {
							r.solutions = append(r.solutions, solutionKey(sol.Assignment))
						}
					}
					results = append(results, r)
				}
				label := fmt.Sprintf("budget=%d k=%d workers=%d", budget, k, w)
				printStats(label, results, *runs)
			}
		}
	}
}

func parseIntList(s string) []int {
	parts := strings.Split(s, ",")
	var result []int
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err == nil {
			result = append(result, v)
		}
	}
	return result
}
