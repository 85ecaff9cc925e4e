package core

import (
	"testing"

	"github.com/zarbafian/gbps/pkg/gbps/types"
)

func peers(addrs ...string) []types.Peer {
	out := make([]types.Peer, len(addrs))
	for i, a := range addrs {
		out[i] = types.NewPeer(a)
	}
	return out
}

// P3: view bound - |peers| <= c after any Select.
func TestSelectRespectsViewBound(t *testing.T) {
	v := NewView("host:0")
	v.Peers = peers("a:1", "b:2", "c:3")

	incoming := peers("d:4", "e:5", "f:6", "g:7")
	v.Select(4, 1, 2, incoming)

	if len(v.Peers) != 4 {
		t.Fatalf("expected exactly 4 peers after merge, got %d: %v", len(v.Peers), v.Peers)
	}
}

// P4: self-exclusion - host_address never appears in peers after Select.
func TestSelectExcludesSelf(t *testing.T) {
	v := NewView("host:0")
	v.Peers = peers("a:1")
	v.Select(4, 1, 2, peers("host:0", "b:2"))

	for _, p := range v.Peers {
		if p.Address == v.HostAddress {
			t.Fatalf("host address leaked into view: %v", v.Peers)
		}
	}
}

// P5: address uniqueness - no duplicate addresses survive a Select.
func TestSelectDeduplicatesAddresses(t *testing.T) {
	v := NewView("host:0")
	v.Peers = peers("a:1")
	v.Select(10, 2, 2, peers("a:1", "a:1", "b:2"))

	seen := map[string]bool{}
	for _, p := range v.Peers {
		if seen[p.Address] {
			t.Fatalf("duplicate address %s survived merge: %v", p.Address, v.Peers)
		}
		seen[p.Address] = true
	}
}

// P6: age monotonicity - IncreaseAge saturates at 65535 and otherwise adds one.
func TestIncreaseAgeMonotonic(t *testing.T) {
	v := NewView("host:0")
	v.Peers = []types.Peer{
		{Address: "a:1", Age: 0},
		{Address: "b:2", Age: 65535},
	}
	v.IncreaseAge()

	if v.Peers[0].Age != 1 {
		t.Fatalf("expected age 1, got %d", v.Peers[0].Age)
	}
	if v.Peers[1].Age != 65535 {
		t.Fatalf("expected saturated age 65535, got %d", v.Peers[1].Age)
	}
}

// P7 / S4: duplicate resolution keeps the fresher (lower) age.
func TestSelectKeepsFresherDuplicate(t *testing.T) {
	v := NewView("host:0")
	v.Peers = []types.Peer{{Address: "x:1", Age: 5}}
	v.Select(10, 2, 2, []types.Peer{{Address: "x:1", Age: 1}})

	var found *types.Peer
	for i := range v.Peers {
		if v.Peers[i].Address == "x:1" {
			found = &v.Peers[i]
		}
	}
	if found == nil {
		t.Fatal("expected x:1 to survive the merge")
	}
	if found.Age != 1 {
		t.Fatalf("expected the fresher age 1 to survive, got %d", found.Age)
	}
}

// P8: queue consistency - every queued peer is present in Peers.
func TestQueueConsistencyAfterSelect(t *testing.T) {
	v := NewView("host:0")
	v.Peers = peers("a:1")
	v.Select(10, 2, 2, peers("b:2", "c:3"))

	inView := map[string]bool{}
	for _, p := range v.Peers {
		inView[p.Address] = true
	}
	for _, q := range v.Queue {
		if !inView[q.Address] {
			t.Fatalf("queue entry %s not present in view: peers=%v queue=%v", q.Address, v.Peers, v.Queue)
		}
	}
}

func TestUpdateQueueDropsStaleEntries(t *testing.T) {
	v := NewView("host:0")
	v.Peers = peers("a:1")
	v.Queue = peers("a:1", "stale:9")
	v.updateQueue()

	for _, q := range v.Queue {
		if q.Address == "stale:9" {
			t.Fatal("stale queue entry should have been dropped")
		}
	}
}

// S3: merge bound - 3 existing peers + 4 incoming, c=4 h=1 s=2, final view
// has exactly 4 peers none equal to host.
func TestSelectMergeBoundScenario(t *testing.T) {
	v := NewView("host:0")
	v.Peers = peers("a:1", "b:2", "c:3")
	v.Select(4, 1, 2, peers("d:4", "e:5", "f:6", "g:7"))

	if len(v.Peers) != 4 {
		t.Fatalf("expected 4 peers, got %d", len(v.Peers))
	}
	for _, p := range v.Peers {
		if p.Address == "host:0" {
			t.Fatal("host address must not appear in the merged view")
		}
	}
}

func TestHeadUsesHalfMinusOneFormula(t *testing.T) {
	v := NewView("host:0")
	v.Peers = peers("a:1", "b:2", "c:3", "d:4", "e:5", "f:6")

	head := v.Head(6) // 6/2 - 1 = 2
	if len(head) != 2 {
		t.Fatalf("expected head(6) to return 2 entries, got %d", len(head))
	}
	if head[0].Address != "a:1" || head[1].Address != "b:2" {
		t.Fatalf("head should return the prefix in order, got %v", head)
	}
}

func TestMoveOldestToEndNoopBelowThreshold(t *testing.T) {
	v := NewView("host:0")
	v.Peers = peers("a:1", "b:2")
	before := append([]types.Peer(nil), v.Peers...)
	v.MoveOldestToEnd(5)

	for i := range before {
		if v.Peers[i] != before[i] {
			t.Fatalf("expected no-op when |peers| <= h, got %v", v.Peers)
		}
	}
}

func TestMoveOldestToEndRelocatesOldest(t *testing.T) {
	v := NewView("host:0")
	v.Peers = []types.Peer{
		{Address: "young:1", Age: 1},
		{Address: "old:1", Age: 100},
		{Address: "young:2", Age: 2},
	}
	v.MoveOldestToEnd(1)

	if v.Peers[len(v.Peers)-1].Address != "old:1" {
		t.Fatalf("expected the oldest peer relocated to the tail, got %v", v.Peers)
	}
	if v.Peers[0].Address != "young:1" || v.Peers[1].Address != "young:2" {
		t.Fatalf("expected the surviving peers to keep their relative order, got %v", v.Peers)
	}
}

func TestSelectPeerEmptyView(t *testing.T) {
	v := NewView("host:0")
	if _, ok := v.SelectPeer(); ok {
		t.Fatal("SelectPeer on an empty view should return false")
	}
}

func TestGetPeerPrefersQueue(t *testing.T) {
	v := NewView("host:0")
	v.Peers = peers("a:1")
	v.Queue = peers("a:1")

	p, ok := v.GetPeer()
	if !ok || p.Address != "a:1" {
		t.Fatalf("expected GetPeer to drain the queue first, got %+v %v", p, ok)
	}
	if len(v.Queue) != 0 {
		t.Fatalf("queue should be empty after popping its only entry, got %v", v.Queue)
	}
}

func TestBuildBufferIncludesSelfAtFreshAge(t *testing.T) {
	v := NewView("host:0")
	v.Peers = peers("a:1", "b:2")

	buffer := v.BuildBuffer("host:0", 1, 10)
	if len(buffer) == 0 || buffer[0].Address != "host:0" || buffer[0].Age != 0 {
		t.Fatalf("expected buffer to start with a fresh self peer, got %v", buffer)
	}
}
