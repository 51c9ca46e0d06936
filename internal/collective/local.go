package collective

import (
	"context"

	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

// Local is an in-process communicator. Every member of a group must run in
// its own goroutine.
type Local struct {
	rv        *Rendezvous
	partition int
	seq       uint64
}

// NewLocalGroup returns n communicators sharing one rendezvous, member i
// acting as partition i.
func NewLocalGroup(n int) []*Local {
	rv := NewRendezvous(n)
	group := make([]*Local, n)
	for i := range group {
		group[i] = &Local{rv: rv, partition: i}
	}
	return group
}

// Partition returns this member's partition id.
func (l *Local) Partition() int { return l.partition }

// Size returns the number of partitions in the group.
func (l *Local) Size() int { return l.rv.Size() }

// AllGather contributes c to the next round and waits for the others.
func (l *Local) AllGather(ctx context.Context, key string, c minmax.Candidate) ([]minmax.Candidate, error) {
	l.seq++
	c.Partition = l.partition
	return l.rv.Contribute(ctx, l.seq, key, c)
}
