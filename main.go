package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"seatplan/solver"
)

// problemFile is the JSON handed to the CLI by whatever produced the roster
// and constraint records (the agent layer, a script, a fixture).
type problemFile struct {
	Layout      layoutSpec       `json:"layout"`
	Students    []solver.Student `json:"students"`
	Constraints []solver.Record  `json:"constraints"`
}

type layoutSpec struct {
	Rows          int           `json:"rows"`
	Columns       int           `json:"columns"`
	DoorColumns   []int         `json:"door_columns,omitempty"`
	WindowColumns []int         `json:"window_columns,omitempty"`
	TeacherSeats  []solver.Seat `json:"teacher_seats,omitempty"`
	Adjacency     string        `json:"adjacency,omitempty"`
}

func (ls layoutSpec) build() (*solver.Layout, error) {
	cfg := solver.LayoutConfig{
		DoorColumns:   ls.DoorColumns,
		WindowColumns: ls.WindowColumns,
		TeacherSeats:  ls.TeacherSeats,
	}
	switch ls.Adjacency {
	case "", "edge":
	case "diagonal":
		cfg.Adjacency = solver.DiagonalAdjacency
	default:
		return nil, fmt.Errorf("unknown adjacency %q (want edge or diagonal)", ls.Adjacency)
	}
	return solver.BuildLayout(ls.Rows, ls.Columns, cfg)
}

func loadProblem(path string) (*problemFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading problem file")
	}
	var p problemFile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "decoding problem file")
	}
	return &p, nil
}

type options struct {
	debug        bool
	maxSolutions int
	nodeBudget   int
	workers      int
	timeout      time.Duration
	explain      bool
	chart        bool
}

func (o *options) logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if o.debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func newRootCmd() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:          "seatplan",
		Short:        "Assigns students to classroom seats under hard and soft constraints",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVar(&o.debug, "debug", false, "use debug log level")

	solveCmd := &cobra.Command{
		Use:   "solve <problem.json>",
		Short: "Search for ranked seating arrangements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(o, args[0])
		},
	}
	solveCmd.Flags().IntVar(&o.maxSolutions, "max-solutions", solver.DefaultOptions.MaxSolutions, "number of distinct arrangements to keep")
	solveCmd.Flags().IntVar(&o.nodeBudget, "node-budget", solver.DefaultOptions.NodeBudget, "search node expansion budget")
	solveCmd.Flags().IntVar(&o.workers, "workers", 1, "parallel workers over first-student branches")
	solveCmd.Flags().DurationVar(&o.timeout, "timeout", 0, "optional search deadline")
	solveCmd.Flags().BoolVar(&o.explain, "explain", true, "include per-constraint explanations")
	solveCmd.Flags().BoolVar(&o.chart, "chart", true, "include seating chart grids")
	cmd.AddCommand(solveCmd)

	validateCmd := &cobra.Command{
		Use:   "validate <problem.json>",
		Short: "Check constraint records against the roster and layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(o, args[0])
		},
	}
	cmd.AddCommand(validateCmd)

	return cmd
}

type solutionOutput struct {
	Assignment  solver.Assignment   `json:"assignment"`
	Cost        int                 `json:"cost"`
	Explanation *solver.Explanation `json:"explanation,omitempty"`
	Chart       [][]string          `json:"chart,omitempty"`
}

type solveOutput struct {
	Status    string           `json:"status"`
	Complete  bool             `json:"complete"`
	Nodes     int              `json:"nodes"`
	ElapsedMS int64            `json:"elapsed_ms"`
	Solutions []solutionOutput `json:"solutions"`
}

func runSolve(o *options, path string) error {
	logger := o.logger()

	p, err := loadProblem(path)
	if err != nil {
		return err
	}
	layout, err := p.Layout.build()
	if err != nil {
		return err
	}
	roster := solver.Roster(p.Students)
	cs, err := solver.ParseConstraints(p.Constraints, roster)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	result, err := solver.Optimize(ctx, layout, roster, cs, solver.Options{
		MaxSolutions: o.maxSolutions,
		NodeBudget:   o.nodeBudget,
		Workers:      o.workers,
		Logger:       logger,
	})
	if err != nil {
		return errors.Wrap(err, "optimizing")
	}

	logger.WithFields(logrus.Fields{
		"status":    result.Status.String(),
		"solutions": len(result.Solutions),
		"nodes":     result.Nodes,
	}).Info("solve finished")

	out := solveOutput{
		Status:    result.Status.String(),
		Complete:  result.Complete,
		Nodes:     result.Nodes,
		ElapsedMS: result.Elapsed.Milliseconds(),
		Solutions: make([]solutionOutput, 0, len(result.Solutions)),
	}
	for _, sol := range result.Solutions {
		so := solutionOutput{Assignment: sol.Assignment, Cost: sol.Cost}
		if o.explain {
			ex := solver.Explain(layout, sol, cs)
			so.Explanation = &ex
		}
		if o.chart {
			so.Chart = renderChart(sol, layout, roster)
		}
		out.Solutions = append(out.Solutions, so)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(out), "writing result")
}

func renderChart(sol solver.Solution, layout *solver.Layout, roster solver.Roster) [][]string {
	grid := sol.Chart(layout, roster)
	names := make([][]string, len(grid))
	for r, row := range grid {
		names[r] = make([]string, len(row))
		for c, st := range row {
			if st != nil {
				names[r][c] = st.Name
			}
		}
	}
	return names
}

func runValidate(o *options, path string) error {
	p, err := loadProblem(path)
	if err != nil {
		return err
	}
	layout, err := p.Layout.build()
	if err != nil {
		return err
	}

	report := solver.ValidateConstraints(layout, solver.Roster(p.Students), p.Constraints)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return errors.Wrap(err, "writing report")
	}
	if !report.Valid {
		return fmt.Errorf("%d validation errors", len(report.Errors))
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
