package optimizers

import (
	"sort"
)

// VariantPool holds the candidate variants across optimization rounds.
// The pool is owned exclusively by the optimization loop and mutated only
// between rounds, so it carries no locking of its own.
type VariantPool struct {
	variants  []*Variant
	baseline  *Variant
	nextOrder int
}

// NewVariantPool seeds a pool with the baseline variant. The baseline is
// a permanent member: pruning never removes it.
func NewVariantPool(baseline *Variant) *VariantPool {
	p := &VariantPool{baseline: baseline}
	p.Admit(baseline)
	return p
}

// Admit adds a freshly created variant to the working set. Capacity is not
// enforced here; SelectTopK does that after scoring.
func (p *VariantPool) Admit(v *Variant) {
	v.order = p.nextOrder
	p.nextOrder++
	p.variants = append(p.variants, v)
}

// Variants returns the current members. Callers must not mutate the slice.
func (p *VariantPool) Variants() []*Variant {
	return p.variants
}

// Baseline returns the generation-0 variant.
func (p *VariantPool) Baseline() *Variant {
	return p.baseline
}

// Len returns the pool size.
func (p *VariantPool) Len() int {
	return len(p.variants)
}

// rankBefore orders variants by running score descending, then lower
// generation, then insertion order.
func rankBefore(a, b *Variant) bool {
	sa, sb := a.RunningScore(), b.RunningScore()
	if sa != sb {
		return sa > sb
	}
	if a.Generation != b.Generation {
		return a.Generation < b.Generation
	}
	return a.order < b.order
}

// SelectTopK prunes the pool to at most k members: the baseline plus the
// k-1 best remaining variants by running score. The result size is always
// min(k, |pool|) and the baseline is always a member.
func (p *VariantPool) SelectTopK(k int) {
	if k <= 0 || len(p.variants) <= k {
		return
	}

	others := make([]*Variant, 0, len(p.variants)-1)
	for _, v := range p.variants {
		if v == p.baseline {
			continue
		}
		others = append(others, v)
	}

	sort.SliceStable(others, func(i, j int) bool {
		return rankBefore(others[i], others[j])
	})

	keep := k - 1
	if keep > len(others) {
		keep = len(others)
	}

	selected := make([]*Variant, 0, k)
	selected = append(selected, p.baseline)
	selected = append(selected, others[:keep]...)

	// Preserve insertion order in the pool itself.
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].order < selected[j].order
	})

	p.variants = selected
}

// Best returns the top-ranked variant. On score ties the lower generation
// wins, so the baseline beats any candidate that merely matches it.
func (p *VariantPool) Best() *Variant {
	if len(p.variants) == 0 {
		return nil
	}
	best := p.variants[0]
	for _, v := range p.variants[1:] {
		if rankBefore(v, best) {
			best = v
		}
	}
	return best
}

// BestScore returns the best running score in the pool.
func (p *VariantPool) BestScore() float64 {
	best := p.Best()
	if best == nil {
		return 0.0
	}
	return best.RunningScore()
}
