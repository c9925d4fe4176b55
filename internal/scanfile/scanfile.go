// Package scanfile parses optical-profilometer scan exports into height
// grids for the surface package.
//
// Two text layouts are supported. Instrument exports are CSV streams of
// x,y,z triplets, one point per value group, in either scan-axis order;
// not-measured points carry a non-numeric z cell. Grid exports are a short
// whitespace-delimited header (point counts and step sizes) followed by
// row-delimited height values. Load sniffs the layout from the first data
// line.
package scanfile

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/roughness.report/internal/surface"
)

// Scan bundles one parsed scan file: the source filename, per-axis point
// counts and increments, and the height grid itself. Counts and Incs are
// ordered x then y.
type Scan struct {
	Filename string
	Counts   [2]int
	Incs     [2]float64
	ZData    *surface.HeightGrid
}

// Steps returns the sample steps in the form the surface package takes.
func (s *Scan) Steps() surface.SampleSteps {
	return surface.SampleSteps{Dx: s.Incs[0], Dy: s.Incs[1]}
}

// Load reads and parses a scan export from disk.
func Load(path string) (*Scan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scan file: %w", err)
	}
	defer f.Close()
	return Parse(f, filepath.Base(path))
}

// Parse reads a scan export from r. The filename is recorded in the
// returned Scan and used in error messages.
func Parse(r io.Reader, filename string) (*Scan, error) {
	br := bufio.NewReader(r)
	first, err := peekFirstDataLine(br)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if strings.Contains(first, ",") {
		return parseXYZ(br, filename)
	}
	return parseGrid(br, filename)
}

// peekFirstDataLine returns the first non-blank line without consuming it.
func peekFirstDataLine(br *bufio.Reader) (string, error) {
	buf, err := br.Peek(4096)
	if len(buf) == 0 && err != nil {
		return "", fmt.Errorf("empty scan file")
	}
	for _, line := range strings.Split(string(buf), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed, nil
		}
	}
	return "", fmt.Errorf("empty scan file")
}

// notMeasured marks points the profilometer could not acquire. All real
// export heights are positive, so any sentinel below zero would do; NaN
// keeps arithmetic from silently absorbing one.
var notMeasured = math.NaN()

// parseXYZ parses the instrument's x,y,z triplet CSV export. The scan may
// run x-fastest or y-fastest; the order is detected by comparing the first
// two x values, the way the vendor software writes them.
func parseXYZ(r io.Reader, filename string) (*Scan, error) {
	var vals []float64
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		for _, field := range strings.Split(line, ",") {
			field = strings.TrimSpace(field)
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				// Not-measured point; only z cells are ever non-numeric.
				v = notMeasured
			}
			vals = append(vals, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: read scan file: %w", filename, err)
	}
	if len(vals) == 0 || len(vals)%3 != 0 {
		return nil, fmt.Errorf("%s: expected x,y,z triplets, got %d values", filename, len(vals))
	}
	n := len(vals) / 3
	if n < 4 {
		return nil, fmt.Errorf("%s: scan has only %d points", filename, n)
	}

	x := func(k int) float64 { return vals[3*k] }
	y := func(k int) float64 { return vals[3*k+1] }
	z := func(k int) float64 { return vals[3*k+2] }

	var xct, yct int
	var xinc, yinc float64
	yFastest := x(0) == x(1)
	if yFastest {
		// y runs in the innermost cycle: count the points that share the
		// first y value to get the number of x positions.
		for k := 0; k < n; k++ {
			if y(k) == y(0) {
				xct++
			}
		}
		if xct == 0 || n%xct != 0 {
			return nil, fmt.Errorf("%s: inconsistent scan layout (%d points, %d x-positions)", filename, n, xct)
		}
		yct = n / xct
		if xct < 2 {
			return nil, fmt.Errorf("%s: scan is a single profile line (%d x-positions)", filename, xct)
		}
		xinc = x(yct) - x(0)
		yinc = y(1) - y(0)
	} else {
		// x runs in the innermost cycle.
		for k := 0; k < n; k++ {
			if x(k) == x(0) {
				yct++
			}
		}
		if yct == 0 || n%yct != 0 {
			return nil, fmt.Errorf("%s: inconsistent scan layout (%d points, %d y-positions)", filename, n, yct)
		}
		xct = n / yct
		if yct < 2 {
			return nil, fmt.Errorf("%s: scan is a single profile line (%d y-positions)", filename, yct)
		}
		xinc = x(1) - x(0)
		yinc = y(xct) - y(0)
	}
	if xinc <= 0 || yinc <= 0 {
		return nil, fmt.Errorf("%s: non-positive step size (dx=%g, dy=%g)", filename, xinc, yinc)
	}

	// Assemble the grid row-major by scan line (rows follow y).
	rows := make([][]float64, yct)
	for i := range rows {
		rows[i] = make([]float64, xct)
	}
	for k := 0; k < n; k++ {
		var i, j int
		if yFastest {
			j, i = k/yct, k%yct
		} else {
			i, j = k/xct, k%xct
		}
		rows[i][j] = z(k)
	}

	filled, err := fillNotMeasured(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if filled > 0 {
		log.Printf("%s: interpolated %d not-measured points", filename, filled)
	}

	grid, err := surface.NewHeightGrid(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &Scan{
		Filename: filename,
		Counts:   [2]int{xct, yct},
		Incs:     [2]float64{xinc, yinc},
		ZData:    grid,
	}, nil
}

// parseGrid parses the header-plus-matrix layout: one header line with
// "<nx> <ny> <dx> <dy>", then ny whitespace-delimited rows of nx heights.
func parseGrid(r io.Reader, filename string) (*Scan, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var header []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		header = strings.Fields(line)
		break
	}
	if len(header) != 4 {
		return nil, fmt.Errorf("%s: grid header must be \"nx ny dx dy\", got %d fields", filename, len(header))
	}
	nx, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, fmt.Errorf("%s: bad nx in header: %w", filename, err)
	}
	ny, err := strconv.Atoi(header[1])
	if err != nil {
		return nil, fmt.Errorf("%s: bad ny in header: %w", filename, err)
	}
	dx, err := strconv.ParseFloat(header[2], 64)
	if err != nil {
		return nil, fmt.Errorf("%s: bad dx in header: %w", filename, err)
	}
	dy, err := strconv.ParseFloat(header[3], 64)
	if err != nil {
		return nil, fmt.Errorf("%s: bad dy in header: %w", filename, err)
	}
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("%s: grid header declares %dx%d points", filename, nx, ny)
	}
	if dx <= 0 || dy <= 0 {
		return nil, fmt.Errorf("%s: non-positive step size (dx=%g, dy=%g)", filename, dx, dy)
	}

	rows := make([][]float64, 0, ny)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != nx {
			return nil, fmt.Errorf("%s: row %d has %d values, header declares %d", filename, len(rows), len(fields), nx)
		}
		row := make([]float64, nx)
		for j, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				v = notMeasured
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: read scan file: %w", filename, err)
	}
	if len(rows) != ny {
		return nil, fmt.Errorf("%s: got %d rows, header declares %d", filename, len(rows), ny)
	}

	filled, err := fillNotMeasured(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if filled > 0 {
		log.Printf("%s: interpolated %d not-measured points", filename, filled)
	}

	grid, err := surface.NewHeightGrid(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &Scan{
		Filename: filename,
		Counts:   [2]int{nx, ny},
		Incs:     [2]float64{dx, dy},
		ZData:    grid,
	}, nil
}

// fillNotMeasured replaces NaN cells by linear interpolation between the
// nearest measured neighbours in the same row, clamping at row edges. Rows
// with no measured point at all are filled the same way down their
// columns. The core pipeline requires a complete grid, so every gap must
// close here, at the ingestion boundary; a scan with no measured heights
// at all is an error, never a NaN grid. Returns the number of cells
// filled.
func fillNotMeasured(rows [][]float64) (int, error) {
	filled := 0
	for _, row := range rows {
		filled += fillLine(row)
	}

	// A fully unmeasured row survives the in-row pass; interpolate it
	// from the column direction instead.
	col := make([]float64, len(rows))
	for j := 0; j < len(rows[0]); j++ {
		gap := false
		for i := range rows {
			col[i] = rows[i][j]
			gap = gap || math.IsNaN(col[i])
		}
		if !gap {
			continue
		}
		filled += fillLine(col)
		for i := range rows {
			rows[i][j] = col[i]
		}
	}

	// Both passes failing means the scan has no measured points at all.
	for _, row := range rows {
		for _, v := range row {
			if math.IsNaN(v) {
				return filled, fmt.Errorf("scan contains no measured height values")
			}
		}
	}
	return filled, nil
}

// fillLine interpolates NaN entries of one row or column in place from
// the nearest finite neighbours, clamping at the ends. Entries with no
// finite neighbour in the line are left as NaN.
func fillLine(line []float64) int {
	filled := 0
	for j := 0; j < len(line); j++ {
		if !math.IsNaN(line[j]) {
			continue
		}
		lo := j - 1
		for lo >= 0 && math.IsNaN(line[lo]) {
			lo--
		}
		hi := j + 1
		for hi < len(line) && math.IsNaN(line[hi]) {
			hi++
		}
		switch {
		case lo >= 0 && hi < len(line):
			frac := float64(j-lo) / float64(hi-lo)
			line[j] = line[lo] + frac*(line[hi]-line[lo])
		case lo >= 0:
			line[j] = line[lo]
		case hi < len(line):
			line[j] = line[hi]
		default:
			continue
		}
		filled++
	}
	return filled
}
