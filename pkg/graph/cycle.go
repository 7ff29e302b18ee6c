package graph

// detectCycle checks whether the freshly added node closes a directed cycle
// in the candidate snapshot. Traversal is depth-first over forward edges
// starting from the new node, edges visited in insertion order so the
// reported path is deterministic. An edge targeting the new node's own
// contract closes the cycle: edges resolve to every committed version of
// their target contract, which now includes the new node.
//
// Returns nil when the candidate is acyclic; otherwise the concrete path of
// version nodes from the new node back to itself.
func detectCycle(candidate *Snapshot, newNode VersionRef) []VersionRef {
	visited := make(map[string]bool)

	// path carries the version nodes on the current DFS stack.
	var path []VersionRef

	var walk func(ref VersionRef) bool
	walk = func(ref VersionRef) bool {
		key := ref.Key()
		if visited[key] {
			return false
		}
		visited[key] = true
		path = append(path, ref)

		for _, e := range candidate.forward[key] {
			if e.ToContractID == newNode.ContractID {
				path = append(path, newNode)
				return true
			}
			for _, target := range candidate.byContract[e.ToContractID] {
				if walk(target) {
					return true
				}
			}
		}

		path = path[:len(path)-1]
		return false
	}

	if walk(newNode) {
		return path
	}
	return nil
}
