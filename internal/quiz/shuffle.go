package quiz

import "math/rand"

func shuffledIDs(rng *rand.Rand, ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// optionPermutation returns perm where perm[display] is the bank option index.
func optionPermutation(rng *rand.Rand, n int) []int {
	return rng.Perm(n)
}

func isPermutation(perm []int, n int) bool {
	if len(perm) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range perm {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
