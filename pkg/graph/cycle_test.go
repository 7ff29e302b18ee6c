package graph

import (
	"errors"
	"testing"

	"github.com/sorobanhub/registry/pkg/abi"
)

func TestDetectCycle_FirstPathByInsertionOrder(t *testing.T) {
	s := NewStore()
	// Two distinct routes back to CA: via CB and via CC. The reported path
	// must follow edge insertion order, so the CB route wins because the
	// rejected publish declares its CB edge first.
	mustCommit(t, s, "CA", "v1")
	mustCommit(t, s, "CB", "v1", clientRef("CA"))
	mustCommit(t, s, "CC", "v1", clientRef("CA"))

	_, err := s.CommitNewVersion(
		VersionRef{ContractID: "CA", VersionLabel: "v2"},
		"h",
		[]abi.Reference{clientRef("CB"), clientRef("CC")},
	)

	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Expected CycleError, got %v", err)
	}

	want := []VersionRef{
		{ContractID: "CA", VersionLabel: "v2"},
		{ContractID: "CB", VersionLabel: "v1"},
		{ContractID: "CA", VersionLabel: "v2"},
	}
	if len(cycleErr.Path) != len(want) {
		t.Fatalf("Path = %v, want %v", cycleErr.Path, want)
	}
	for i := range want {
		if cycleErr.Path[i] != want[i] {
			t.Errorf("Path[%d] = %v, want %v", i, cycleErr.Path[i], want[i])
		}
	}
}

func TestDetectCycle_LongChainUnaffected(t *testing.T) {
	s := NewStore()
	// Deep chain C00 <- C01 <- ... <- C19; adding one more link at the end
	// must pass, and linking the head back to the tail must fail.
	mustCommit(t, s, "C00", "v1")
	prev := "C00"
	for i := 1; i < 20; i++ {
		name := chainName(i)
		mustCommit(t, s, name, "v1", clientRef(prev))
		prev = name
	}

	_, err := s.CommitNewVersion(
		VersionRef{ContractID: "C00", VersionLabel: "v2"},
		"h",
		[]abi.Reference{clientRef(prev)},
	)
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Expected CycleError for head -> tail link, got %v", err)
	}
	// Path runs the entire chain: C00@v2, C19@v1 ... C01@v1, C00@v2.
	if len(cycleErr.Path) != 21 {
		t.Errorf("Expected 21-node path, got %d", len(cycleErr.Path))
	}
}

func TestDetectCycle_ErrorMessageCarriesPath(t *testing.T) {
	err := &CycleError{Path: []VersionRef{
		{ContractID: "CA", VersionLabel: "v2"},
		{ContractID: "CB", VersionLabel: "v1"},
		{ContractID: "CA", VersionLabel: "v2"},
	}}
	want := "dependency cycle detected: CA@v2 -> CB@v1 -> CA@v2"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func chainName(i int) string {
	return "C" + string(rune('0'+i/10)) + string(rune('0'+i%10))
}
