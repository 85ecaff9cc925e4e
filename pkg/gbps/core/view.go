// Package core holds the concurrently-driven collaborators of a Service:
// the View (merge algorithm), the Network (TCP framing), and the
// Sampler/Receiver thread bodies that drive them.
package core

import (
	"math/rand/v2"
	"sort"

	"github.com/zarbafian/gbps/pkg/gbps/types"
)

// View is the bounded, ordered sample of the overlay a single node holds.
// Its methods mutate the peer slice/queue in place and do no locking; callers
// (Sampler, Receiver, Service) are responsible for holding the view's
// mutex - see Service.mutex - across a call. Order matters: move_oldest_to_end
// and the merge phases place newly arrived peers at the tail and consume
// the head, per the reference algorithm.
type View struct {
	HostAddress string
	Peers       []types.Peer
	Queue       []types.Peer
}

// NewView creates an empty view owned by the given address.
func NewView(hostAddress string) *View {
	return &View{HostAddress: hostAddress}
}

// SelectPeer returns a uniform-random element of Peers, or false if empty.
func (v *View) SelectPeer() (types.Peer, bool) {
	if len(v.Peers) == 0 {
		return types.Peer{}, false
	}
	return v.Peers[rand.IntN(len(v.Peers))], true
}

// Permute uniformly shuffles Peers in place.
func (v *View) Permute() {
	rand.Shuffle(len(v.Peers), func(i, j int) {
		v.Peers[i], v.Peers[j] = v.Peers[j], v.Peers[i]
	})
}

// MoveOldestToEnd relocates the h peers with the largest age to the tail,
// preserving the relative order both of the peers that move and of those
// that stay. A no-op if the view holds h or fewer peers.
func (v *View) MoveOldestToEnd(h uint) {
	n := len(v.Peers)
	if n <= int(h) || h == 0 {
		return
	}

	byAge := make([]types.Peer, n)
	copy(byAge, v.Peers)
	sort.SliceStable(byAge, func(i, j int) bool { return byAge[i].Age > byAge[j].Age })
	oldest := make(map[string]bool, h)
	for _, p := range byAge[:h] {
		oldest[p.Address] = true
	}

	stay := make([]types.Peer, 0, n-int(h))
	moved := make([]types.Peer, 0, h)
	for _, p := range v.Peers {
		if oldest[p.Address] {
			moved = append(moved, p)
		} else {
			stay = append(stay, p)
		}
	}
	v.Peers = append(stay, moved...)
}

// Head returns a copy of the first min(c/2-1, len(Peers)) entries. Callers
// must enforce c >= 2; the formula is part of the wire contract, not a typo
// for c/2.
func (v *View) Head(c uint) []types.Peer {
	count := int(c)/2 - 1
	if count > len(v.Peers) {
		count = len(v.Peers)
	}
	if count <= 0 {
		return nil
	}
	head := make([]types.Peer, count)
	copy(head, v.Peers[:count])
	return head
}

// IncreaseAge increments every peer's age by one, saturating at 65535.
func (v *View) IncreaseAge() {
	for i := range v.Peers {
		v.Peers[i] = v.Peers[i].IncrementAge()
	}
}

// BuildBuffer assembles the payload sent on every push/pull-response: the
// node's own fresh identity, followed by up to c/2-1 peers from the head
// of a freshly permuted, healed view.
func (v *View) BuildBuffer(selfAddress string, h, c uint) []types.Peer {
	buffer := make([]types.Peer, 0, 1+int(c)/2)
	buffer = append(buffer, types.NewPeer(selfAddress))
	v.Permute()
	v.MoveOldestToEnd(h)
	buffer = append(buffer, v.Head(c)...)
	return buffer
}

// Select merges an incoming buffer into the view: append (excluding self),
// deduplicate keeping the freshest age, then three bounded removal phases
// (oldest-first, head-first, uniform-random) bring the view back to at
// most c entries, and finally the queue is reconciled against the result.
func (v *View) Select(c, h, s uint, incoming []types.Peer) {
	for _, p := range incoming {
		if p.Address != v.HostAddress {
			v.Peers = append(v.Peers, p)
		}
	}

	v.removeDuplicates()
	v.removeOldItems(c, h)
	v.removeHead(c, s)
	v.removeAtRandom(c)
	v.updateQueue()
}

// removeDuplicates keeps, for each address, the entry with the lower
// (fresher) age. Survivor order is not guaranteed to match first-seen
// order - the spec does not require it - but this scan is deterministic,
// unlike routing the same logic through a hash set.
func (v *View) removeDuplicates() {
	best := make(map[string]types.Peer, len(v.Peers))
	order := make([]string, 0, len(v.Peers))
	for _, p := range v.Peers {
		existing, ok := best[p.Address]
		if !ok {
			order = append(order, p.Address)
			best[p.Address] = p
			continue
		}
		if p.Age < existing.Age {
			best[p.Address] = p
		}
	}
	deduped := make([]types.Peer, 0, len(order))
	for _, addr := range order {
		deduped = append(deduped, best[addr])
	}
	v.Peers = deduped
}

// removeOldItems drops up to h of the peers with the largest age, but only
// as many as are in excess of c, preserving the relative order of survivors.
func (v *View) removeOldItems(c, h uint) {
	excess := excessOver(len(v.Peers), c)
	k := minUint(h, excess)
	if k == 0 {
		return
	}

	byAge := make([]types.Peer, len(v.Peers))
	copy(byAge, v.Peers)
	sort.SliceStable(byAge, func(i, j int) bool { return byAge[i].Age < byAge[j].Age })
	kept := make(map[string]bool, len(byAge)-int(k))
	for _, p := range byAge[:len(byAge)-int(k)] {
		kept[p.Address] = true
	}

	survivors := make([]types.Peer, 0, len(kept))
	for _, p := range v.Peers {
		if kept[p.Address] {
			survivors = append(survivors, p)
		}
	}
	v.Peers = survivors
}

// removeHead drops up to s entries from the front of the view, but only as
// many as are in excess of c.
func (v *View) removeHead(c, s uint) {
	excess := excessOver(len(v.Peers), c)
	k := minUint(s, excess)
	v.Peers = v.Peers[k:]
}

// removeAtRandom repeatedly removes a uniform-random entry until the view
// is no larger than c.
func (v *View) removeAtRandom(c uint) {
	for len(v.Peers) > int(c) {
		idx := rand.IntN(len(v.Peers))
		v.Peers = append(v.Peers[:idx], v.Peers[idx+1:]...)
	}
}

// updateQueue drops queue entries no longer present in Peers and appends
// any peer now in Peers that the queue had not already surfaced.
func (v *View) updateQueue() {
	inView := make(map[string]bool, len(v.Peers))
	for _, p := range v.Peers {
		inView[p.Address] = true
	}

	kept := make([]types.Peer, 0, len(v.Queue))
	known := make(map[string]bool, len(v.Queue))
	for _, p := range v.Queue {
		if inView[p.Address] {
			kept = append(kept, p)
			known[p.Address] = true
		}
	}

	for _, p := range v.Peers {
		if !known[p.Address] {
			kept = append(kept, p)
			known[p.Address] = true
		}
	}
	v.Queue = kept
}

// GetPeer biases callers toward newly observed peers: it pops the queue
// front if non-empty, falling back to a uniform-random peer from the view.
func (v *View) GetPeer() (types.Peer, bool) {
	if len(v.Queue) > 0 {
		p := v.Queue[0]
		v.Queue = v.Queue[1:]
		return p, true
	}
	return v.SelectPeer()
}

func excessOver(n int, c uint) uint {
	if n <= int(c) {
		return 0
	}
	return uint(n) - c
}

func minUint(a, b uint) uint {
	if a < b {
		return a
	}
	return b
}
