package graph

import (
	"fmt"
	"sort"

	"github.com/sorobanhub/registry/pkg/abi"
)

// Dependent is one direct reverse edge: a version that references the
// queried contract, with the kind of the reference.
type Dependent struct {
	From VersionRef        `json:"from"`
	Kind abi.ReferenceKind `json:"kind"`
}

// ImpactEntry is one node in a transitive reverse closure, annotated with
// its minimum hop distance from the origin.
type ImpactEntry struct {
	Ref   VersionRef `json:"ref"`
	Depth int        `json:"depth"`
}

// ExportNode is the visualization-neutral node shape.
type ExportNode struct {
	ID           string `json:"id"`
	ContractID   string `json:"contract_id"`
	VersionLabel string `json:"version_label"`
}

// ExportEdge is the visualization-neutral edge shape. To is a contract
// identifier; Unresolved marks a forward reference to a contract with no
// committed version.
type ExportEdge struct {
	From       string            `json:"from"`
	To         string            `json:"to"`
	Kind       abi.ReferenceKind `json:"kind"`
	Unresolved bool              `json:"unresolved,omitempty"`
}

// Export is a fully materialized graph view. Node and edge order follow
// commit order, so repeated exports of one snapshot are byte-identical.
type Export struct {
	Epoch uint64       `json:"epoch"`
	Nodes []ExportNode `json:"nodes"`
	Edges []ExportEdge `json:"edges"`
}

// Dependencies returns the direct forward edges of a version node, ordered
// by (kind, target contract) for determinism.
func Dependencies(snap *Snapshot, ref VersionRef) ([]Edge, error) {
	if !snap.HasVersion(ref) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref.Key())
	}
	src := snap.forward[ref.Key()]
	out := make([]Edge, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ToContractID < out[j].ToContractID
	})
	return out, nil
}

// Dependents returns the direct reverse edges of a contract: every committed
// version holding a reference to it, ordered by (contract, version label,
// kind).
func Dependents(snap *Snapshot, contractID string) ([]Dependent, error) {
	if !snap.HasContract(contractID) && len(snap.reverse[contractID]) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, contractID)
	}
	src := snap.reverse[contractID]
	out := make([]Dependent, 0, len(src))
	for _, e := range src {
		out = append(out, Dependent{From: e.From, Kind: e.Kind})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.From.ContractID != b.From.ContractID {
			return a.From.ContractID < b.From.ContractID
		}
		if a.From.VersionLabel != b.From.VersionLabel {
			return a.From.VersionLabel < b.From.VersionLabel
		}
		return a.Kind < b.Kind
	})
	return out, nil
}

// ImpactAnalysis computes the full transitive reverse closure of a version
// node: every committed version that would be affected if the node's
// contract changes, each at its minimum hop distance. Traversal is
// breadth-first over reverse edges, so depth reflects shortest hops; a node
// reachable via multiple paths appears once. Ordering is ascending depth,
// then (contract, version label) within a depth level.
func ImpactAnalysis(snap *Snapshot, ref VersionRef) ([]ImpactEntry, error) {
	if !snap.HasVersion(ref) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref.Key())
	}

	visited := map[string]bool{ref.Key(): true}
	out := make([]ImpactEntry, 0)

	frontier := []VersionRef{ref}
	depth := 0
	for len(frontier) > 0 {
		depth++
		next := make([]VersionRef, 0)
		level := make([]VersionRef, 0)
		for _, node := range frontier {
			for _, e := range snap.reverse[node.ContractID] {
				key := e.From.Key()
				if visited[key] {
					continue
				}
				visited[key] = true
				level = append(level, e.From)
			}
		}
		sort.Slice(level, func(i, j int) bool {
			if level[i].ContractID != level[j].ContractID {
				return level[i].ContractID < level[j].ContractID
			}
			return level[i].VersionLabel < level[j].VersionLabel
		})
		for _, node := range level {
			out = append(out, ImpactEntry{Ref: node, Depth: depth})
			next = append(next, node)
		}
		frontier = next
	}
	return out, nil
}

// ExportGraph materializes the snapshot into the generic node/edge model
// consumed by visualization layers.
func ExportGraph(snap *Snapshot) *Export {
	nodes := make([]ExportNode, 0, len(snap.nodeOrder))
	for _, ref := range snap.nodeOrder {
		nodes = append(nodes, ExportNode{
			ID:           ref.Key(),
			ContractID:   ref.ContractID,
			VersionLabel: ref.VersionLabel,
		})
	}
	edges := make([]ExportEdge, 0, len(snap.edgeOrder))
	for _, e := range snap.edgeOrder {
		edges = append(edges, ExportEdge{
			From:       e.From.Key(),
			To:         e.ToContractID,
			Kind:       e.Kind,
			Unresolved: !snap.HasContract(e.ToContractID),
		})
	}
	return &Export{Epoch: snap.epoch, Nodes: nodes, Edges: edges}
}
