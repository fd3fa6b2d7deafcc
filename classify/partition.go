package classify

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// PartitionByGroup splits rows into train and test so that every group
// (for example one physical target) lands entirely on one side. Within
// each class, round(percent/100 * groups) groups are drawn for training.
// Classes and groups are visited in order of first appearance.
func PartitionByGroup(labels, groups []string, percent float64, rng *rand.Rand) (train, test []int, err error) {
	if len(labels) != len(groups) {
		return nil, nil, fmt.Errorf("%w: %d labels, %d groups", ErrShape, len(labels), len(groups))
	}
	if percent < 0 || percent > 100 {
		return nil, nil, fmt.Errorf("classify: train percent %g outside [0, 100]", percent)
	}

	var classes []string
	classGroups := make(map[string][]string)
	seen := make(map[[2]string]bool)

	for i, l := range labels {
		if _, ok := classGroups[l]; !ok {
			classes = append(classes, l)
			classGroups[l] = nil
		}
		key := [2]string{l, groups[i]}
		if !seen[key] {
			seen[key] = true
			classGroups[l] = append(classGroups[l], groups[i])
		}
	}

	inTrain := make(map[[2]string]bool)
	for _, c := range classes {
		gs := classGroups[c]
		n := int(math.RoundToEven(percent / 100 * float64(len(gs))))
		for _, k := range rng.Perm(len(gs))[:n] {
			inTrain[[2]string{c, gs[k]}] = true
		}
	}

	for i, l := range labels {
		if inTrain[[2]string{l, groups[i]}] {
			train = append(train, i)
		} else {
			test = append(test, i)
		}
	}

	return train, test, nil
}

// Holdout shuffles 0..n-1 and returns the first round(frac*n) indices as
// the training rows, both sides sorted.
func Holdout(n int, frac float64, rng *rand.Rand) (train, test []int) {
	perm := rng.Perm(n)
	k := int(math.Round(frac * float64(n)))
	k = min(max(k, 0), n)

	train = slices.Clone(perm[:k])
	test = slices.Clone(perm[k:])
	slices.Sort(train)
	slices.Sort(test)

	return train, test
}

// SMOTE oversamples every class up to the size of the largest one by
// interpolating between a random row of the class and one of its k nearest
// same-class neighbours. Classes with fewer than two rows are left alone.
// The returned slices hold the originals followed by the synthetic rows.
func SMOTE(X [][]float64, y []int, nClasses, k int, rng *rand.Rand) ([][]float64, []int, error) {
	if _, err := checkFit(X, y, nClasses); err != nil {
		return nil, nil, err
	}
	if k < 1 {
		return nil, nil, fmt.Errorf("classify: smote k must be >= 1, got %d", k)
	}

	byClass := make([][]int, nClasses)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}

	target := 0
	for _, rows := range byClass {
		target = max(target, len(rows))
	}

	outX := slices.Clone(X)
	outY := slices.Clone(y)

	for c, rows := range byClass {
		need := target - len(rows)
		if need <= 0 || len(rows) < 2 {
			continue
		}

		kk := min(k, len(rows)-1)
		neighbours := make([][]int, len(rows))
		for a, i := range rows {
			neighbours[a] = nearestWithin(X, rows, i, kk)
		}

		for range need {
			a := rng.IntN(len(rows))
			base := X[rows[a]]
			other := X[neighbours[a][rng.IntN(kk)]]
			gap := rng.Float64()

			s := make([]float64, len(base))
			for j := range s {
				s[j] = base[j] + gap*(other[j]-base[j])
			}
			outX = append(outX, s)
			outY = append(outY, c)
		}
	}

	return outX, outY, nil
}

// nearestWithin returns the k rows of candidates closest to row i,
// excluding i.
func nearestWithin(X [][]float64, candidates []int, i, k int) []int {
	type cand struct {
		row  int
		dist float64
	}

	cs := make([]cand, 0, len(candidates)-1)
	for _, j := range candidates {
		if j == i {
			continue
		}
		var d float64
		for f := range X[i] {
			diff := X[i][f] - X[j][f]
			d += diff * diff
		}
		cs = append(cs, cand{row: j, dist: d})
	}

	slices.SortStableFunc(cs, func(a, b cand) int { return cmp.Compare(a.dist, b.dist) })

	out := make([]int, k)
	for n := range out {
		out[n] = cs[n].row
	}
	return out
}
