package collective

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

// round is one all-gather in progress. Rounds are numbered by the
// contributing partitions themselves: the n-th collective call of every
// partition lands in round n, and all of them must agree on its key.
type round struct {
	key      string
	contribs map[int]minmax.Candidate
	result   []minmax.Candidate
	err      error
	done     chan struct{}
	opened   time.Time

	arrived int // calls that reached this round, rejected ones included
	waiting int // calls that have not returned yet
}

// Rendezvous matches contributions of a fixed set of partitions into
// completed rounds. It backs both the in-process group and the HTTP
// coordinator.
type Rendezvous struct {
	size   int
	rounds map[uint64]*round

	completed uint64
	failed    uint64

	mu sync.Mutex
}

// NewRendezvous creates a rendezvous for size partitions.
func NewRendezvous(size int) *Rendezvous {
	return &Rendezvous{
		size:   size,
		rounds: make(map[uint64]*round),
	}
}

// Size returns the number of partitions taking part.
func (r *Rendezvous) Size() int {
	return r.size
}

// Contribute adds partition c.Partition's candidate to round seq and blocks
// until the round completes, fails, or ctx is done. The returned slice is
// ordered by partition id and owned by the caller.
func (r *Rendezvous) Contribute(ctx context.Context, seq uint64, key string, c minmax.Candidate) ([]minmax.Candidate, error) {
	if c.Partition < 0 || c.Partition >= r.size {
		return nil, fmt.Errorf("%w: %d (size %d)", minmax.ErrPartitionOutOfRange, c.Partition, r.size)
	}

	r.mu.Lock()
	rd, exists := r.rounds[seq]
	if !exists {
		rd = &round{
			key:      key,
			contribs: make(map[int]minmax.Candidate, r.size),
			done:     make(chan struct{}),
			opened:   time.Now(),
		}
		r.rounds[seq] = rd
	}
	rd.arrived++
	rd.waiting++

	switch {
	case rd.err != nil || rd.result != nil:
		// Round already settled: either failed, or this is a duplicate.
		if rd.err == nil {
			r.failLocked(rd, fmt.Errorf("%w: round %d already complete, partition %d contributed again",
				minmax.ErrCollectiveMismatch, seq, c.Partition))
		}
	case rd.key != key:
		r.failLocked(rd, fmt.Errorf("%w: round %d: partition %d sent %q, expected %q",
			minmax.ErrCollectiveMismatch, seq, c.Partition, key, rd.key))
	default:
		if _, dup := rd.contribs[c.Partition]; dup {
			r.failLocked(rd, fmt.Errorf("%w: round %d: partition %d contributed twice",
				minmax.ErrCollectiveMismatch, seq, c.Partition))
			break
		}
		rd.contribs[c.Partition] = c
		if len(rd.contribs) == r.size {
			rd.result = make([]minmax.Candidate, 0, r.size)
			for _, cand := range rd.contribs {
				rd.result = append(rd.result, cand)
			}
			slices.SortFunc(rd.result, func(a, b minmax.Candidate) int {
				return cmp.Compare(a.Partition, b.Partition)
			})
			r.completed++
			close(rd.done)
		}
	}
	r.mu.Unlock()

	var ctxErr error
	select {
	case <-rd.done:
	case <-ctx.Done():
		ctxErr = ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.leaveLocked(seq, rd)

	if ctxErr != nil {
		return nil, ctxErr
	}
	if rd.err != nil {
		return nil, rd.err
	}
	return slices.Clone(rd.result), nil
}

// leaveLocked forgets rd once it is settled and its last caller has
// returned. A failed round that some partitions never reached is kept so
// they still see the failure when they arrive; Expire sweeps it later.
func (r *Rendezvous) leaveLocked(seq uint64, rd *round) {
	rd.waiting--
	if rd.waiting > 0 || (rd.err == nil && rd.result == nil) {
		return
	}
	if rd.err != nil && rd.arrived < r.size {
		return
	}
	if r.rounds[seq] == rd {
		delete(r.rounds, seq)
	}
}

// failLocked settles rd with err and wakes every waiter.
func (r *Rendezvous) failLocked(rd *round, err error) {
	if rd.err != nil {
		return
	}
	rd.err = err
	rd.result = nil
	r.failed++
	select {
	case <-rd.done:
	default:
		close(rd.done)
	}
}

// Stats reports completed, failed and pending rounds.
func (r *Rendezvous) Stats() (completed, failed uint64, pending int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rd := range r.rounds {
		if rd.err == nil && rd.result == nil {
			pending++
		}
	}
	return r.completed, r.failed, pending
}

// Expire fails every round that has been waiting for contributions longer
// than maxAge and returns how many it failed. Partitions blocked in such a
// round get minmax.ErrRoundFailed. Settled rounds older than maxAge that
// nobody is waiting on are dropped.
func (r *Rendezvous) Expire(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	expired := 0
	now := time.Now()
	for seq, rd := range r.rounds {
		if now.Sub(rd.opened) <= maxAge {
			continue
		}
		if rd.err != nil || rd.result != nil {
			if rd.waiting == 0 {
				delete(r.rounds, seq)
			}
			continue
		}
		r.failLocked(rd, fmt.Errorf("%w: round %d timed out with %d of %d partitions after %v",
			minmax.ErrRoundFailed, seq, len(rd.contribs), r.size, now.Sub(rd.opened).Round(time.Millisecond)))
		expired++
	}
	return expired
}
