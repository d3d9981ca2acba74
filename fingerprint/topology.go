package fingerprint

import "github.com/clustermin/clustermin/species"

// BondGraphComponents counts connected components of the bonding adjacency
// graph at the given cutoff. This is a supplemented diagnostic (see
// SPEC_FULL.md), grounded on the original Rust source's
// analysis/topology.rs, which keeps connectivity analysis as a first-class
// entry point alongside the spectral fingerprint. It reuses the same
// adjacency-matrix construction as Compute/graphSpectrum and is never
// consulted by deduplication — only by optional diagnostic logging.
func BondGraphComponents(c *species.Cluster, cutoff float64) (int, error) {
	n := len(c.Atoms)
	if n == 0 {
		return 0, nil
	}
	m, err := bondAdjacency(c, cutoff)
	if err != nil {
		return 0, err
	}

	visited := make([]bool, n)
	components := 0
	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		components++
		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for j := 0; j < n; j++ {
				if visited[j] {
					continue
				}
				v, _ := m.At(cur, j)
				if v != 0 {
					visited[j] = true
					stack = append(stack, j)
				}
			}
		}
	}
	return components, nil
}
