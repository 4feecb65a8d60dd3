package matdisco

import (
	"cmp"
	"math"
	"slices"

	"github.com/hupe1980/matdisco/cluster"
)

// candidate is a donor pool index with its combined score.
type candidate struct {
	idx   int
	score float64
}

func candidates(donors []int, scores []float64) []candidate {
	out := make([]candidate, len(donors))
	for i, idx := range donors {
		out[i] = candidate{idx: idx, score: scores[i]}
	}
	return out
}

// qualify returns the candidates eligible for transfer. In percentage
// mode this is the highest-scoring fraction of cands, at least one row.
func qualify(cands []candidate, cfg Config) []candidate {
	if len(cands) == 0 {
		return nil
	}
	if cfg.ExitMode == ExitPercentage {
		n := int(math.Ceil(cfg.Percentage * float64(len(cands))))
		n = max(1, min(n, len(cands)))
		top := slices.Clone(cands)
		rank(top, false)
		return top[:n]
	}

	var out []candidate
	for _, c := range cands {
		if c.score >= cfg.Threshold {
			out = append(out, c)
		}
	}
	return out
}

// rank sorts by score, descending unless ascending is set. Equal scores
// keep ascending pool order.
func rank(cands []candidate, ascending bool) {
	slices.SortStableFunc(cands, func(a, b candidate) int {
		if c := cmp.Compare(a.score, b.score); c != 0 {
			if ascending {
				return c
			}
			return -c
		}
		return cmp.Compare(a.idx, b.idx)
	})
}

// selectBatch picks up to BatchSize qualifying donors in rank order.
func selectBatch(cands []candidate, cfg Config) []candidate {
	q := qualify(cands, cfg)
	rank(q, cfg.LeastNovelFirst)
	return q[:min(cfg.BatchSize, len(q))]
}

// selectClustered picks up to BatchSize qualifying donors from every
// cluster. Clusters are visited in ascending label order.
func selectClustered(cands []candidate, labels map[int]int, cfg Config) []candidate {
	q := qualify(cands, cfg)

	qLabels := make([]int, len(q))
	for i, c := range q {
		qLabels[i] = labels[c.idx]
	}

	var out []candidate
	for _, members := range cluster.Groups(qLabels) {
		group := make([]candidate, len(members))
		for i, m := range members {
			group[i] = q[m]
		}
		rank(group, cfg.LeastNovelFirst)
		out = append(out, group[:min(cfg.BatchSize, len(group))]...)
	}
	return out
}

func indices(cands []candidate) []int {
	out := make([]int, len(cands))
	for i, c := range cands {
		out[i] = c.idx
	}
	return out
}
