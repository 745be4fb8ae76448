package sampler

import "math/rand/v2"

// Pick returns n ids drawn without replacement from ids using a generator
// seeded by seed. ids must already be in a stable order for the draw to be
// reproducible. n larger than len(ids) returns every id, shuffled.
func Pick(ids []string, n int, seed uint64) []string {
	n = min(n, len(ids))
	if n <= 0 {
		return []string{}
	}

	pool := append([]string(nil), ids...)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	for i := range n {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
