package surface

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// The S-family areal roughness parameters. Each function treats every grid
// cell as one equally weighted sample over the surface, which is exact for
// uniformly sampled grids. Callers conventionally pass a detrended grid;
// none of these functions detrend internally.
//
// The documented failure modes return typed errors instead of NaN so a
// degenerate surface can never be mistaken for a valid near-zero result.

// Sa returns the average roughness: the mean of |z| over all cells.
// Always >= 0; zero only when every height equals the reference.
func Sa(g *HeightGrid) (float64, error) {
	if err := validate("Sa", g); err != nil {
		return 0, err
	}
	var sum float64
	for _, z := range g.data {
		sum += math.Abs(z)
	}
	return sum / float64(len(g.data)), nil
}

// Sq returns the RMS roughness: sqrt of the mean of z^2 over all cells.
// Sq >= Sa for every grid, with equality only when all |z| are equal.
func Sq(g *HeightGrid) (float64, error) {
	if err := validate("Sq", g); err != nil {
		return 0, err
	}
	var sum float64
	for _, z := range g.data {
		sum += z * z
	}
	return math.Sqrt(sum / float64(len(g.data))), nil
}

// Sz returns the peak-to-valley height: max(z) - min(z) over the grid.
func Sz(g *HeightGrid) (float64, error) {
	if err := validate("Sz", g); err != nil {
		return 0, err
	}
	return floats.Max(g.data) - floats.Min(g.data), nil
}

// St is the total height of the surface, an alias for Sz under the older
// naming convention still used on instrument datasheets.
func St(g *HeightGrid) (float64, error) {
	return Sz(g)
}

// Sp returns the maximum peak height: the largest signed height.
func Sp(g *HeightGrid) (float64, error) {
	if err := validate("Sp", g); err != nil {
		return 0, err
	}
	return floats.Max(g.data), nil
}

// Sv returns the maximum valley depth: the magnitude of the most negative
// height. Reported as a positive quantity.
func Sv(g *HeightGrid) (float64, error) {
	if err := validate("Sv", g); err != nil {
		return 0, err
	}
	return math.Abs(floats.Min(g.data)), nil
}

// Ssk returns the skewness of the height distribution:
// (1/n * sum z^3) / Sq^3. The sign indicates the asymmetry of peaks
// versus valleys. Returns a DegenerateSurfaceError when Sq is zero.
func Ssk(g *HeightGrid) (float64, error) {
	return normalisedMoment("Ssk", g, 3)
}

// Sku returns the kurtosis of the height distribution:
// (1/n * sum z^4) / Sq^4. Returns a DegenerateSurfaceError when Sq is
// zero.
func Sku(g *HeightGrid) (float64, error) {
	return normalisedMoment("Sku", g, 4)
}

// normalisedMoment computes (1/n * sum z^p) / Sq^p for p in {3, 4}.
func normalisedMoment(metric string, g *HeightGrid, p int) (float64, error) {
	if err := validate(metric, g); err != nil {
		return 0, err
	}
	var sumSq, sumP float64
	for _, z := range g.data {
		sumSq += z * z
		zp := z * z * z
		if p == 4 {
			zp *= z
		}
		sumP += zp
	}
	n := float64(len(g.data))
	sq := math.Sqrt(sumSq / n)
	if sq == 0 {
		return 0, &DegenerateSurfaceError{Metric: metric}
	}
	return (sumP / n) / math.Pow(sq, float64(p)), nil
}
