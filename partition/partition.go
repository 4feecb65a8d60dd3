// Package partition tracks the acceptor/donor split of a combined pool of
// rows.
//
// The pool is indexed [0, N): acceptor rows occupy [0, nAcceptor) at
// creation time and donor rows are appended after them. Rows only ever
// move from donor to acceptor.
package partition

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

var (
	// ErrNotDonor is returned when moving an index that is not a donor.
	ErrNotDonor = errors.New("partition: index is not a donor")

	// ErrInvariant is returned by Verify when the partition is corrupt.
	ErrInvariant = errors.New("partition: invariant violated")
)

// Partition is the acceptor/donor split of a fixed-size pool.
// It is not safe for concurrent mutation.
type Partition struct {
	size     uint32
	acceptor *roaring.Bitmap
	donor    *roaring.Bitmap
	order    []int // acceptor admission order
}

// New creates a partition of nAcceptor acceptor rows followed by nDonor
// donor rows.
func New(nAcceptor, nDonor int) *Partition {
	if nAcceptor < 0 {
		nAcceptor = 0
	}
	if nDonor < 0 {
		nDonor = 0
	}
	size := uint64(nAcceptor + nDonor)

	p := &Partition{
		size:     uint32(size),
		acceptor: roaring.New(),
		donor:    roaring.New(),
		order:    make([]int, nAcceptor, nAcceptor+nDonor),
	}
	p.acceptor.AddRange(0, uint64(nAcceptor))
	p.donor.AddRange(uint64(nAcceptor), size)
	for i := range p.order {
		p.order[i] = i
	}
	return p
}

// Len returns the pool size.
func (p *Partition) Len() int { return int(p.size) }

// AcceptorLen returns the number of acceptor rows.
func (p *Partition) AcceptorLen() int { return int(p.acceptor.GetCardinality()) }

// DonorLen returns the number of donor rows.
func (p *Partition) DonorLen() int { return int(p.donor.GetCardinality()) }

// IsDonor reports whether idx is currently a donor.
func (p *Partition) IsDonor(idx int) bool {
	return idx >= 0 && idx < int(p.size) && p.donor.Contains(uint32(idx))
}

// Acceptors returns acceptor indices in admission order: the initial
// acceptor rows first, then every moved row in the order it was moved.
func (p *Partition) Acceptors() []int {
	out := make([]int, len(p.order))
	copy(out, p.order)
	return out
}

// Donors returns donor indices in ascending pool order.
func (p *Partition) Donors() []int {
	out := make([]int, 0, p.donor.GetCardinality())
	it := p.donor.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Move transfers indices from donor to acceptor, in the given order.
// The call is atomic: if any index is not a donor (or repeats), nothing
// moves.
func (p *Partition) Move(indices []int) error {
	seen := roaring.New()
	for _, idx := range indices {
		if !p.IsDonor(idx) {
			return fmt.Errorf("%w: %d", ErrNotDonor, idx)
		}
		if !seen.CheckedAdd(uint32(idx)) {
			return fmt.Errorf("%w: %d listed twice", ErrNotDonor, idx)
		}
	}
	p.donor.AndNot(seen)
	p.acceptor.Or(seen)
	p.order = append(p.order, indices...)
	return nil
}

// Verify checks that acceptor and donor sets are disjoint, that together
// they cover the pool exactly, and that the admission order matches the
// acceptor set.
func (p *Partition) Verify() error {
	if roaring.And(p.acceptor, p.donor).GetCardinality() != 0 {
		return fmt.Errorf("%w: acceptor and donor overlap", ErrInvariant)
	}
	union := roaring.Or(p.acceptor, p.donor)
	full := roaring.New()
	full.AddRange(0, uint64(p.size))
	if !union.Equals(full) {
		return fmt.Errorf("%w: union covers %d of %d rows", ErrInvariant, union.GetCardinality(), p.size)
	}
	if uint64(len(p.order)) != p.acceptor.GetCardinality() {
		return fmt.Errorf("%w: admission order has %d entries for %d acceptors", ErrInvariant, len(p.order), p.acceptor.GetCardinality())
	}
	ordered := roaring.New()
	for _, idx := range p.order {
		ordered.Add(uint32(idx))
	}
	if !ordered.Equals(p.acceptor) {
		return fmt.Errorf("%w: admission order disagrees with acceptor set", ErrInvariant)
	}
	return nil
}
