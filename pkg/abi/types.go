package abi

// ReferenceKind classifies how one contract refers to another.
type ReferenceKind string

const (
	// KindInterface is a declared interface binding (the contract exposes
	// or consumes another contract's interface definition).
	KindInterface ReferenceKind = "interface"
	// KindClient is a generated client binding against another contract.
	KindClient ReferenceKind = "client"
	// KindImport is a plain import of another contract's declarations.
	KindImport ReferenceKind = "import"
)

// IsValid reports whether k is one of the closed set of reference kinds.
func (k ReferenceKind) IsValid() bool {
	switch k {
	case KindInterface, KindClient, KindImport:
		return true
	}
	return false
}

// kindRank orders kinds deterministically for extractor output:
// client < import < interface, which is their lexical order.
func kindRank(k ReferenceKind) int {
	switch k {
	case KindClient:
		return 0
	case KindImport:
		return 1
	case KindInterface:
		return 2
	}
	return 3
}

// Reference is one extracted dependency declaration.
type Reference struct {
	TargetContractID string        `json:"target_contract_id"`
	Kind             ReferenceKind `json:"kind"`
}

// ImportDecl is a declared import of another contract's definitions.
type ImportDecl struct {
	ContractID string `json:"contract_id"`
	Path       string `json:"path,omitempty"`
}

// ClientDecl is a declared client binding against another contract.
type ClientDecl struct {
	ContractID string `json:"contract_id"`
	Name       string `json:"name,omitempty"`
}

// InterfaceDecl is a declared interface binding.
type InterfaceDecl struct {
	ContractID string `json:"contract_id"`
	Name       string `json:"name,omitempty"`
}

// FunctionDecl is an exposed contract function. The extractor does not
// inspect functions; they are carried so the document round-trips intact
// for hashing and display.
type FunctionDecl struct {
	Name    string   `json:"name"`
	Inputs  []string `json:"inputs,omitempty"`
	Outputs []string `json:"outputs,omitempty"`
}

// InterfaceDocument is the parsed interface description of one contract
// version.
type InterfaceDocument struct {
	ContractID string          `json:"contract_id"`
	Functions  []FunctionDecl  `json:"functions,omitempty"`
	Imports    []ImportDecl    `json:"imports,omitempty"`
	Clients    []ClientDecl    `json:"clients,omitempty"`
	Interfaces []InterfaceDecl `json:"interfaces,omitempty"`
}
