package normalize

import "strings"

// wordSet lowercases a title and splits it on whitespace.
func wordSet(title string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(title))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// jaccard is |a ∩ b| / |a ∪ b| kept as an exact fraction.
type jaccard struct {
	inter int
	union int
}

func similarity(a, b map[string]struct{}) jaccard {
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	return jaccard{inter: inter, union: len(a) + len(b) - inter}
}

// atLeast reports whether the ratio is >= num/den.
func (j jaccard) atLeast(num, den int) bool {
	if j.union == 0 {
		return false
	}
	return j.inter*den >= num*j.union
}

// greater reports whether j is strictly more similar than o.
func (j jaccard) greater(o jaccard) bool {
	return j.inter*o.union > o.inter*j.union
}

func (j jaccard) equal(o jaccard) bool {
	return j.inter*o.union == o.inter*j.union
}

func (j jaccard) ratio() float64 {
	if j.union == 0 {
		return 0
	}
	return float64(j.inter) / float64(j.union)
}

// Similarity is the Jaccard index of two titles' word sets.
func Similarity(a, b string) float64 {
	return similarity(wordSet(a), wordSet(b)).ratio()
}
