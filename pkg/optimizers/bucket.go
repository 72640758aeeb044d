package optimizers

import (
	"sort"
)

// Bucket groups the trajectories of one example so strategies can see
// where variants disagree in quality. Buckets are round-scoped: built from
// one round's trajectories, consumed by strategies, then discarded.
type Bucket struct {
	ExampleIndex int
	Trajectories []Trajectory

	BestScore     float64
	WorstScore    float64
	ScoreVariance float64

	// HasImprovementPotential is true when the score spread exceeds the
	// configured threshold and the bucket holds enough trajectories to
	// be evidence rather than noise.
	HasImprovementPotential bool
}

// BuildBuckets groups trajectories by example index and derives the
// summary statistics strategies select on. Pure: building twice from the
// same trajectory list yields structurally identical buckets.
func BuildBuckets(trajectories []Trajectory, improvementThreshold float64, minBucketSize int) []Bucket {
	if len(trajectories) == 0 {
		return nil
	}

	grouped := make(map[int][]Trajectory)
	for _, tr := range trajectories {
		grouped[tr.ExampleIndex] = append(grouped[tr.ExampleIndex], tr)
	}

	indices := make([]int, 0, len(grouped))
	for idx := range grouped {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	buckets := make([]Bucket, 0, len(indices))
	for _, idx := range indices {
		group := grouped[idx]

		best := group[0].Score
		worst := group[0].Score
		var sum float64
		for _, tr := range group {
			if tr.Score > best {
				best = tr.Score
			}
			if tr.Score < worst {
				worst = tr.Score
			}
			sum += tr.Score
		}

		mean := sum / float64(len(group))
		var variance float64
		for _, tr := range group {
			d := tr.Score - mean
			variance += d * d
		}
		variance /= float64(len(group))

		buckets = append(buckets, Bucket{
			ExampleIndex:  idx,
			Trajectories:  group,
			BestScore:     best,
			WorstScore:    worst,
			ScoreVariance: variance,
			HasImprovementPotential: (best-worst) > improvementThreshold &&
				len(group) >= minBucketSize,
		})
	}

	return buckets
}

// BestTrajectory returns the highest-scoring trajectory in the bucket.
func (b Bucket) BestTrajectory() Trajectory {
	best := b.Trajectories[0]
	for _, tr := range b.Trajectories[1:] {
		if tr.Score > best.Score {
			best = tr
		}
	}
	return best
}

// WorstTrajectory returns the lowest-scoring trajectory in the bucket.
func (b Bucket) WorstTrajectory() Trajectory {
	worst := b.Trajectories[0]
	for _, tr := range b.Trajectories[1:] {
		if tr.Score < worst.Score {
			worst = tr
		}
	}
	return worst
}

// CountActionable reports how many buckets strategies may act on.
func CountActionable(buckets []Bucket) int {
	count := 0
	for _, b := range buckets {
		if b.HasImprovementPotential {
			count++
		}
	}
	return count
}
