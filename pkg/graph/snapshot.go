package graph

import (
	"github.com/sorobanhub/registry/pkg/abi"
)

// VersionRef identifies one published version of one contract.
type VersionRef struct {
	ContractID   string `json:"contract_id"`
	VersionLabel string `json:"version_label"`
}

// Key returns the canonical node identifier, contractID@versionLabel.
func (r VersionRef) Key() string {
	return r.ContractID + "@" + r.VersionLabel
}

// Edge is a directed reference from a dependent version to a depended-upon
// contract. The target is a contract identifier, not a version: a contract
// declares a dependency on another contract, and the edge resolves to
// whatever versions of that contract are committed.
type Edge struct {
	From         VersionRef        `json:"from"`
	ToContractID string            `json:"to_contract_id"`
	Kind         abi.ReferenceKind `json:"kind"`
}

// Snapshot is an immutable point-in-time view of the full graph. It is never
// mutated after being published as current; commits build a successor and
// swap it in atomically. Readers may hold a snapshot for the duration of any
// number of queries without coordination.
type Snapshot struct {
	epoch uint64

	// nodes maps version keys to their refs; hashes carries the interface
	// hash recorded at publish time.
	nodes  map[string]VersionRef
	hashes map[string]string

	// byContract indexes committed versions per contract, insertion order.
	byContract map[string][]VersionRef

	// forward maps a version key to its outgoing edges; reverse maps a
	// contract id to the edges that target it. Both keep insertion order.
	forward map[string][]Edge
	reverse map[string][]Edge

	// nodeOrder and edgeOrder preserve global insertion order so exports of
	// the same snapshot are byte-identical.
	nodeOrder []VersionRef
	edgeOrder []Edge
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		epoch:      0,
		nodes:      make(map[string]VersionRef),
		hashes:     make(map[string]string),
		byContract: make(map[string][]VersionRef),
		forward:    make(map[string][]Edge),
		reverse:    make(map[string][]Edge),
	}
}

// Epoch returns the snapshot's commit epoch. The empty initial snapshot has
// epoch zero; every successful publish increments it.
func (s *Snapshot) Epoch() uint64 { return s.epoch }

// NodeCount returns the number of committed version nodes.
func (s *Snapshot) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of committed dependency edges.
func (s *Snapshot) EdgeCount() int { return len(s.edgeOrder) }

// HasVersion reports whether the exact version node is committed.
func (s *Snapshot) HasVersion(ref VersionRef) bool {
	_, ok := s.nodes[ref.Key()]
	return ok
}

// HasContract reports whether any version of the contract is committed.
func (s *Snapshot) HasContract(contractID string) bool {
	return len(s.byContract[contractID]) > 0
}

// VersionsOf returns the committed versions of a contract in publish order.
// The returned slice is shared with the snapshot and must not be modified.
func (s *Snapshot) VersionsOf(contractID string) []VersionRef {
	return s.byContract[contractID]
}

// InterfaceHash returns the interface hash recorded when the version was
// published, or "" if the version is unknown.
func (s *Snapshot) InterfaceHash(ref VersionRef) string {
	return s.hashes[ref.Key()]
}

// clone builds a mutable successor sharing the predecessor's adjacency
// slices. Only the entries the commit touches are reallocated; everything
// else is borrowed, which keeps commits cheap on large graphs.
func (s *Snapshot) clone() *Snapshot {
	next := &Snapshot{
		epoch:      s.epoch + 1,
		nodes:      make(map[string]VersionRef, len(s.nodes)+1),
		hashes:     make(map[string]string, len(s.hashes)+1),
		byContract: make(map[string][]VersionRef, len(s.byContract)+1),
		forward:    make(map[string][]Edge, len(s.forward)+1),
		reverse:    make(map[string][]Edge, len(s.reverse)+1),
		nodeOrder:  s.nodeOrder,
		edgeOrder:  s.edgeOrder,
	}
	for k, v := range s.nodes {
		next.nodes[k] = v
	}
	for k, v := range s.hashes {
		next.hashes[k] = v
	}
	for k, v := range s.byContract {
		next.byContract[k] = v
	}
	for k, v := range s.forward {
		next.forward[k] = v
	}
	for k, v := range s.reverse {
		next.reverse[k] = v
	}
	return next
}

// addVersion inserts the new node and its edges into a cloned, not yet
// published snapshot. Slices inherited from the predecessor are copied
// before being appended to, so the predecessor stays untouched even if the
// candidate is later discarded.
func (s *Snapshot) addVersion(ref VersionRef, interfaceHash string, edges []Edge) {
	key := ref.Key()
	s.nodes[key] = ref
	s.hashes[key] = interfaceHash
	s.byContract[ref.ContractID] = appendCopy(s.byContract[ref.ContractID], ref)

	// nodeOrder/edgeOrder are shared with the predecessor; copy once, then
	// the candidate owns its backing arrays.
	s.nodeOrder = appendCopy(s.nodeOrder, ref)
	edgeOrder := make([]Edge, len(s.edgeOrder), len(s.edgeOrder)+len(edges))
	copy(edgeOrder, s.edgeOrder)

	out := make([]Edge, 0, len(edges))
	copied := make(map[string]bool, len(edges))
	for _, e := range edges {
		out = append(out, e)
		if copied[e.ToContractID] {
			s.reverse[e.ToContractID] = append(s.reverse[e.ToContractID], e)
		} else {
			s.reverse[e.ToContractID] = appendCopy(s.reverse[e.ToContractID], e)
			copied[e.ToContractID] = true
		}
		edgeOrder = append(edgeOrder, e)
	}
	s.forward[key] = out
	s.edgeOrder = edgeOrder
}

// appendCopy appends without aliasing the source slice's backing array.
func appendCopy[T any](src []T, v T) []T {
	out := make([]T, len(src), len(src)+1)
	copy(out, src)
	return append(out, v)
}

// ContractCycles reports strongly connected components over bare contract
// identifiers, ignoring versions. These are advisory: a contract-level cycle
// is possible even while the committed version graph stays acyclic, because
// edges from superseded versions still count at contract granularity. The
// result lists each component of size > 1 (or a self-loop), contracts in
// first-seen order.
func (s *Snapshot) ContractCycles() [][]string {
	// Collapse the version graph to contract granularity.
	adj := make(map[string][]string)
	order := make([]string, 0, len(s.byContract))
	seenContract := make(map[string]bool)
	for _, ref := range s.nodeOrder {
		if !seenContract[ref.ContractID] {
			seenContract[ref.ContractID] = true
			order = append(order, ref.ContractID)
		}
	}
	for _, e := range s.edgeOrder {
		adj[e.From.ContractID] = append(adj[e.From.ContractID], e.ToContractID)
	}

	// Iterative Tarjan SCC.
	type frame struct {
		node string
		next int
	}
	index := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var cycles [][]string
	counter := 0

	for _, root := range order {
		if _, visited := index[root]; visited {
			continue
		}
		work := []frame{{node: root}}
		for len(work) > 0 {
			f := &work[len(work)-1]
			v := f.node
			if f.next == 0 {
				index[v] = counter
				lowlink[v] = counter
				counter++
				stack = append(stack, v)
				onStack[v] = true
			}
			advanced := false
			for f.next < len(adj[v]) {
				w := adj[v][f.next]
				f.next++
				if !seenContract[w] {
					continue // unresolved forward reference
				}
				if _, visited := index[w]; !visited {
					work = append(work, frame{node: w})
					advanced = true
					break
				}
				if onStack[w] && index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
			if advanced {
				continue
			}
			// v is finished; pop and propagate lowlink.
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := work[len(work)-1].node
				if lowlink[v] < lowlink[parent] {
					lowlink[parent] = lowlink[v]
				}
			}
			if lowlink[v] == index[v] {
				var comp []string
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				if len(comp) > 1 || hasSelfLoop(adj, v) {
					// Reverse to first-seen order within the component.
					for i, j := 0, len(comp)-1; i < j; i, j = i+1, j-1 {
						comp[i], comp[j] = comp[j], comp[i]
					}
					cycles = append(cycles, comp)
				}
			}
		}
	}
	return cycles
}

func hasSelfLoop(adj map[string][]string, node string) bool {
	for _, w := range adj[node] {
		if w == node {
			return true
		}
	}
	return false
}
