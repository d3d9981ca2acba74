package evaluator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/clustermin/clustermin/species"
)

// fatalPhrases abort evaluation with ErrUnusable regardless of whether an
// energy line was also found, matching the GULP-style minimizer's own
// diagnostics (spec §6, grounded on original_source/src/engine/external/gulp.rs).
var fatalPhrases = []string{
	"Conditions for a minimum have not been satisfied",
	"Interatomic distance too small",
	"Dump of error info",
}

// ProcessEvaluator invokes an external command-line minimizer, writing a text
// input and parsing its text output, per spec §6.
type ProcessEvaluator struct {
	// Command is the executable to run; Args are passed verbatim.
	Command string
	Args    []string

	// PotentialParams is the verbatim potential-parameters payload appended
	// to every generated input file.
	PotentialParams string
}

// NewProcessEvaluator constructs a ProcessEvaluator for the given command.
func NewProcessEvaluator(command string, args []string, potentialParams string) *ProcessEvaluator {
	return &ProcessEvaluator{Command: command, Args: args, PotentialParams: potentialParams}
}

// Name identifies this evaluator for logs/telemetry.
func (p *ProcessEvaluator) Name() string { return "process:" + p.Command }

// Evaluate writes c as a minimizer input, runs the external command, and
// parses its output for energy, gradient norm, and relaxed geometry.
func (p *ProcessEvaluator) Evaluate(ctx context.Context, c *species.Cluster) (Result, error) {
	input := RenderInput(c, p.PotentialParams)

	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	cmd.Stdin = strings.NewReader(input)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	// Some minimizers report fatal conditions on stderr; fold it in so the
	// fatal-phrase scan covers both streams.
	cmd.Stderr = &stdout

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("evaluator.ProcessEvaluator.Evaluate: run %s: %w: %v", p.Command, ErrUnusable, err)
	}

	return ParseOutput(stdout.String(), len(c.Atoms), c)
}

// RenderInput builds the minimizer's text input: a keyword block, optional
// lattice vectors (rows), a coordinates block (cartesian or fractional
// depending on lattice presence), and the verbatim potential-parameters
// payload.
func RenderInput(c *species.Cluster, potentialParams string) string {
	var b strings.Builder
	b.WriteString("opti conp\n")
	if c.Lattice != nil {
		b.WriteString("vectors\n")
		for _, v := range [][3]float64{c.Lattice.A, c.Lattice.B, c.Lattice.C} {
			fmt.Fprintf(&b, "%.8f %.8f %.8f\n", v[0], v[1], v[2])
		}
		b.WriteString("fractional\n")
	} else {
		b.WriteString("cartesian\n")
	}
	for i, a := range c.Atoms {
		fmt.Fprintf(&b, "atom%d core %.8f %.8f %.8f\n", i, a.Position[0], a.Position[1], a.Position[2])
	}
	b.WriteString(potentialParams)
	if !strings.HasSuffix(potentialParams, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// ParseOutput parses a minimizer's text output per spec §6: it scans
// (case-insensitively) for lines containing "final energy" or "total lattice
// energy" and parses the first numeric token after "="; optionally reads a
// "final gnorm" line; scans from the end of the output for "final fractional
// coordinates" or "final cartesian coordinates" and reads the next n atom
// lines (>= 6 columns, skipping shell lines whose tag starts with 's').
// Fatal phrases anywhere in the output yield ErrUnusable. A mismatched atom
// count also yields ErrUnusable.
func ParseOutput(output string, wantAtoms int, template *species.Cluster) (Result, error) {
	for _, phrase := range fatalPhrases {
		if strings.Contains(output, phrase) {
			return Result{}, fmt.Errorf("evaluator.ParseOutput: fatal phrase %q: %w", phrase, ErrUnusable)
		}
	}

	lines := strings.Split(output, "\n")

	energy, found := findEnergy(lines)
	if !found {
		return Result{}, fmt.Errorf("evaluator.ParseOutput: no energy line found: %w", ErrUnusable)
	}

	res := Result{Energy: energy}
	if g, ok := findGnorm(lines); ok {
		res.GradientNorm = &g
	}

	coords, fractional, ok := findCoordinatesFromEnd(lines, wantAtoms)
	if ok {
		relaxed := template.Clone()
		if len(coords) != len(relaxed.Atoms) {
			return Result{}, fmt.Errorf("evaluator.ParseOutput: atom count mismatch (got %d want %d): %w", len(coords), len(relaxed.Atoms), ErrUnusable)
		}
		for i, pos := range coords {
			relaxed.Atoms[i].Position = pos
		}
		if fractional && relaxed.Lattice != nil {
			fracToCartesianAll(relaxed)
		}
		res.Relaxed = relaxed
	}

	return res, nil
}

func findEnergy(lines []string) (float64, bool) {
	lower := func(s string) string { return strings.ToLower(s) }
	for _, line := range lines {
		ll := lower(line)
		if strings.Contains(ll, "final energy") || strings.Contains(ll, "total lattice energy") {
			if v, ok := firstNumberAfterEquals(line); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func findGnorm(lines []string) (float64, bool) {
	for _, line := range lines {
		if strings.Contains(strings.ToLower(line), "final gnorm") {
			if v, ok := firstNumberAfterEquals(line); ok {
				return v, true
			}
		}
	}
	return 0, false
}

func firstNumberAfterEquals(line string) (float64, bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return 0, false
	}
	rest := line[idx+1:]
	fields := strings.Fields(rest)
	for _, f := range fields {
		f = strings.Trim(f, "eV,")
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// findCoordinatesFromEnd scans lines from the end for a "final fractional
// coordinates" or "final cartesian coordinates" header and reads the next n
// atom lines after it, skipping shell lines (tag starts with 's'). The last
// result reports whether a header was found; if fewer than n atom lines
// follow it, the returned slice is shorter than n.
func findCoordinatesFromEnd(lines []string, n int) ([][3]float64, bool, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		ll := strings.ToLower(lines[i])
		fractional := strings.Contains(ll, "final fractional coordinates")
		cartesian := strings.Contains(ll, "final cartesian coordinates")
		if !fractional && !cartesian {
			continue
		}
		coords, _ := readAtomLines(lines[i+1:], n)
		return coords, fractional, true
	}
	return nil, false, false
}

// readAtomLines scans forward from the lines following a coordinates header,
// skipping non-atom lines (headers/separators), collecting up to n atom
// lines of >= 6 whitespace-separated columns, and skipping shell lines whose
// tag (2nd column) starts with 's'.
func readAtomLines(lines []string, n int) ([][3]float64, bool) {
	var coords [][3]float64
	for _, line := range lines {
		if len(coords) == n {
			break
		}
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		tag := strings.ToLower(fields[1])
		if strings.HasPrefix(tag, "s") {
			continue
		}
		x, errX := strconv.ParseFloat(fields[2], 64)
		y, errY := strconv.ParseFloat(fields[3], 64)
		z, errZ := strconv.ParseFloat(fields[4], 64)
		if errX != nil || errY != nil || errZ != nil {
			continue
		}
		coords = append(coords, [3]float64{x, y, z})
	}
	return coords, len(coords) == n
}

func fracToCartesianAll(c *species.Cluster) {
	lat := c.Lattice
	for i, a := range c.Atoms {
		f := a.Position
		var cart [3]float64
		for k := 0; k < 3; k++ {
			cart[k] = f[0]*lat.A[k] + f[1]*lat.B[k] + f[2]*lat.C[k]
		}
		c.Atoms[i].Position = cart
	}
}
