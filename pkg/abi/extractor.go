package abi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedInterface is returned when an interface document lacks the
// minimal structure needed to identify references.
var ErrMalformedInterface = errors.New("malformed interface description")

// Extract walks the document's declared imports, clients, and interface
// bindings and returns one Reference per distinct (target, kind) pair.
// Self-references are dropped. The result is ordered by (kind, target) so
// repeated extraction of the same document is deterministic. A document with
// no references yields an empty, non-nil slice.
func Extract(doc *InterfaceDocument) ([]Reference, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrMalformedInterface)
	}
	if doc.ContractID == "" {
		return nil, fmt.Errorf("%w: missing contract_id", ErrMalformedInterface)
	}

	refs := make([]Reference, 0)
	seen := make(map[Reference]bool)

	add := func(target string, kind ReferenceKind, section string, idx int) error {
		if target == "" {
			return fmt.Errorf("%w: %s[%d] missing contract_id", ErrMalformedInterface, section, idx)
		}
		if target == doc.ContractID {
			return nil // self-reference
		}
		ref := Reference{TargetContractID: target, Kind: kind}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
		return nil
	}

	for i, imp := range doc.Imports {
		if err := add(imp.ContractID, KindImport, "imports", i); err != nil {
			return nil, err
		}
	}
	for i, cl := range doc.Clients {
		if err := add(cl.ContractID, KindClient, "clients", i); err != nil {
			return nil, err
		}
	}
	for i, iface := range doc.Interfaces {
		if err := add(iface.ContractID, KindInterface, "interfaces", i); err != nil {
			return nil, err
		}
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Kind != refs[j].Kind {
			return kindRank(refs[i].Kind) < kindRank(refs[j].Kind)
		}
		return refs[i].TargetContractID < refs[j].TargetContractID
	})

	return refs, nil
}

// Hash returns a stable hex digest of the document. Declarations are hashed
// in their declared order, so two documents with identical content produce
// identical hashes.
func Hash(doc *InterfaceDocument) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("%w: nil document", ErrMalformedInterface)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to serialize interface document: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
