package relationship

import "sync"

const lockShards = 64

// pairLocks serializes transitions on the same (owner, target) pair so that
// the check-then-act sequence inside a transition never races with itself.
// The striped layout keeps unrelated pairs from contending.
type pairLocks struct {
	shards [lockShards]sync.Mutex
}

func (p *pairLocks) lock(ownerID, targetID uint) func() {
	i := (uint64(ownerID)*31 + uint64(targetID)) % lockShards
	p.shards[i].Lock()
	return p.shards[i].Unlock
}
