package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tcstacks/crosscsp/internal/csp"
	"github.com/tcstacks/crosscsp/internal/gridio"
)

var (
	solveSeed           int64
	solveTimeout        time.Duration
	solveHonorPrefilled bool
	solveOutDir         string
	solveLogDir         string
)

var solveCmd = &cobra.Command{
	Use:   "solve <grid-file> [dictionary-file]",
	Short: "Fill a crossword grid from a dictionary",
	Long: `solve reads a grid file and a dictionary file, fills the grid's
slots with a backtracking search, and writes the solution and a run log.

Examples:
  # Solve a grid, looking for words.txt beside it
  crossgen solve input_files/grid-11x11-20W-83L-38B.txt

  # Solve against an explicit dictionary with a fixed sampling seed
  crossgen solve grid.txt words.txt --seed 42`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)

	solveCmd.Flags().Int64Var(&solveSeed, "seed", 0, "PRNG seed for least-constraining-value sampling on large domains")
	solveCmd.Flags().DurationVar(&solveTimeout, "timeout", 0, "abort the search after this long (0 = no limit)")
	solveCmd.Flags().BoolVar(&solveHonorPrefilled, "honor-prefilled", false, "treat pre-filled letters as seeding constraints instead of blocks")
	solveCmd.Flags().StringVar(&solveOutDir, "out-dir", "solutions", "directory to write the solution grid into")
	solveCmd.Flags().StringVar(&solveLogDir, "log-dir", "logs", "directory to write the run log into")
}

func runSolve(cmd *cobra.Command, args []string) error {
	gridPath := args[0]
	dictPath := ""
	if len(args) == 2 {
		dictPath = args[1]
	} else {
		dictPath = filepath.Join(filepath.Dir(gridPath), "words.txt")
	}

	if verbosity > 0 {
		fmt.Printf("Loading grid from %s...\n", gridPath)
	}
	lines, err := gridio.ReadGridFile(gridPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "crossgen: %v\n", err)
		os.Exit(1)
	}

	if verbosity > 0 {
		fmt.Printf("Loading words from %s...\n", dictPath)
	}
	words, err := gridio.ReadDictionaryFile(dictPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "crossgen: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	res, err := csp.Solve(ctx, lines, words, csp.Config{
		HonorPrefilled: solveHonorPrefilled,
		Seed:           solveSeed,
		Timeout:        solveTimeout,
		EventSink: func(line string) {
			if verbosity > 0 {
				fmt.Println(line)
			}
		},
	})
	if err != nil {
		if errors.Is(err, csp.ErrUnsolvable) {
			fmt.Println("No solution found.")
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "crossgen: %v\n", err)
		os.Exit(1)
	}

	gridName := strings.TrimSuffix(filepath.Base(gridPath), filepath.Ext(gridPath))
	solutionPath := filepath.Join(solveOutDir, gridName+"_solution.txt")
	logPath := filepath.Join(solveLogDir, gridName+"_solution_log.txt")

	fmt.Println("Writing solution to files...")
	if err := gridio.WriteSolution(solutionPath, csp.Render(lines, res.Assignment)); err != nil {
		fmt.Fprintf(os.Stderr, "crossgen: %v\n", err)
		os.Exit(1)
	}
	if err := gridio.WriteLog(logPath, res); err != nil {
		fmt.Fprintf(os.Stderr, "crossgen: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Solution found in %.2f seconds!\n", res.Elapsed.Seconds())
	fmt.Printf("Solution written to %s\n", solutionPath)
	fmt.Printf("Solution log written to %s\n", logPath)
	return nil
}
