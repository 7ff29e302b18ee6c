package abi

import (
	"errors"
	"testing"
)

func TestExtract_EmptyDocument(t *testing.T) {
	doc := &InterfaceDocument{ContractID: "CTOKEN"}

	refs, err := Extract(doc)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if refs == nil {
		t.Fatal("Expected non-nil empty slice for zero references")
	}
	if len(refs) != 0 {
		t.Errorf("Expected 0 references, got %d", len(refs))
	}
}

func TestExtract_AllKinds(t *testing.T) {
	doc := &InterfaceDocument{
		ContractID: "CTOKEN",
		Imports:    []ImportDecl{{ContractID: "CMATH", Path: "math/safe"}},
		Clients:    []ClientDecl{{ContractID: "CORACLE", Name: "OracleClient"}},
		Interfaces: []InterfaceDecl{{ContractID: "CADMIN", Name: "Administrable"}},
	}

	refs, err := Extract(doc)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(refs) != 3 {
		t.Fatalf("Expected 3 references, got %d", len(refs))
	}

	// Ordered by kind rank (client, import, interface), then target.
	expected := []Reference{
		{TargetContractID: "CORACLE", Kind: KindClient},
		{TargetContractID: "CMATH", Kind: KindImport},
		{TargetContractID: "CADMIN", Kind: KindInterface},
	}
	for i, want := range expected {
		if refs[i] != want {
			t.Errorf("refs[%d] = %+v, want %+v", i, refs[i], want)
		}
	}
}

func TestExtract_DropsSelfReferences(t *testing.T) {
	doc := &InterfaceDocument{
		ContractID: "CTOKEN",
		Imports:    []ImportDecl{{ContractID: "CTOKEN"}},
		Clients:    []ClientDecl{{ContractID: "CORACLE"}},
	}

	refs, err := Extract(doc)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(refs) != 1 {
		t.Fatalf("Expected self-reference to be dropped, got %d references", len(refs))
	}
	if refs[0].TargetContractID != "CORACLE" {
		t.Errorf("Expected CORACLE, got %s", refs[0].TargetContractID)
	}
}

func TestExtract_CollapsesDuplicates(t *testing.T) {
	doc := &InterfaceDocument{
		ContractID: "CTOKEN",
		Clients: []ClientDecl{
			{ContractID: "CORACLE", Name: "PriceClient"},
			{ContractID: "CORACLE", Name: "FeedClient"},
		},
		Imports: []ImportDecl{{ContractID: "CORACLE"}},
	}

	refs, err := Extract(doc)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	// Same target with different kinds stays distinct; same (target, kind)
	// collapses to one.
	if len(refs) != 2 {
		t.Fatalf("Expected 2 references, got %d", len(refs))
	}
	if refs[0].Kind != KindClient || refs[1].Kind != KindImport {
		t.Errorf("Unexpected kinds: %+v", refs)
	}
}

func TestExtract_MalformedDocument(t *testing.T) {
	cases := []struct {
		name string
		doc  *InterfaceDocument
	}{
		{"nil document", nil},
		{"missing contract id", &InterfaceDocument{}},
		{"import without target", &InterfaceDocument{
			ContractID: "CTOKEN",
			Imports:    []ImportDecl{{Path: "math/safe"}},
		}},
		{"client without target", &InterfaceDocument{
			ContractID: "CTOKEN",
			Clients:    []ClientDecl{{Name: "Mystery"}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Extract(tc.doc)
			if !errors.Is(err, ErrMalformedInterface) {
				t.Errorf("Expected ErrMalformedInterface, got %v", err)
			}
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	doc := &InterfaceDocument{
		ContractID: "CTOKEN",
		Imports:    []ImportDecl{{ContractID: "CB"}, {ContractID: "CA"}},
		Clients:    []ClientDecl{{ContractID: "CD"}, {ContractID: "CC"}},
	}

	first, err := Extract(doc)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Extract(doc)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("Non-deterministic length: %d vs %d", len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("Non-deterministic order at %d: %+v vs %+v", j, again[j], first[j])
			}
		}
	}
}

func TestHash_StableAndDistinct(t *testing.T) {
	a := &InterfaceDocument{ContractID: "CTOKEN", Clients: []ClientDecl{{ContractID: "CORACLE"}}}
	b := &InterfaceDocument{ContractID: "CTOKEN", Clients: []ClientDecl{{ContractID: "CORACLE"}}}
	c := &InterfaceDocument{ContractID: "CTOKEN", Clients: []ClientDecl{{ContractID: "CVAULT"}}}

	ha, err := Hash(a)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	hb, _ := Hash(b)
	hc, _ := Hash(c)

	if ha != hb {
		t.Error("Identical documents should hash identically")
	}
	if ha == hc {
		t.Error("Different documents should hash differently")
	}
}
