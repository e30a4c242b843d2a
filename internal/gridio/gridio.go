// Package gridio reads grid and dictionary text and writes solution and
// log files, the I/O shell around the pure internal/csp solver.
package gridio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tcstacks/crosscsp/internal/csp"
)

// ReadGrid reads newline-terminated grid rows. Rows may be ragged (§6);
// only the trailing newline is stripped, so interior whitespace in a row
// is preserved verbatim.
func ReadGrid(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gridio: reading grid: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("gridio: grid is empty")
	}
	return lines, nil
}

// ReadDictionary reads one word per line, trimming whitespace and
// skipping blank lines. Words are returned as found; uppercasing is the
// word index's job (internal/csp.BuildWordIndex).
func ReadDictionary(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		w := strings.TrimSpace(scanner.Text())
		if w == "" {
			continue
		}
		words = append(words, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gridio: reading dictionary: %w", err)
	}
	return words, nil
}

// ReadGridFile and ReadDictionaryFile open path and delegate to the
// Reader-based variants above, closing the file on return.
func ReadGridFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gridio: %w", err)
	}
	defer f.Close()
	return ReadGrid(f)
}

func ReadDictionaryFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gridio: %w", err)
	}
	defer f.Close()
	return ReadDictionary(f)
}

// WriteSolution writes the filled grid, one row per line, creating parent
// directories as needed. Mirrors crossword_csp.py's write_solution.
func WriteSolution(path string, filledLines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("gridio: %w", err)
	}
	var b strings.Builder
	for _, line := range filledLines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("gridio: %w", err)
	}
	return nil
}

// WriteLog writes the event log entries followed by the elapsed time and
// a per-slot word assignment listing, mirroring crossword_csp.py's
// write_log.
func WriteLog(path string, res *csp.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("gridio: %w", err)
	}

	var b strings.Builder
	for _, line := range res.Log.Entries() {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "\nTotal time: %.2f seconds\n", res.Elapsed.Seconds())

	b.WriteString("\nWord assignments:\n")
	for _, slot := range res.Slots {
		word, ok := res.Assignment[slot]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s at (%d,%d), length %d: %s\n", slot.Direction, slot.Row, slot.Col, slot.Length, word)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("gridio: %w", err)
	}
	return nil
}
