package indexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNamePermutations(t *testing.T) {
	// void N::S::f(int), display names from the innermost cursor outward.
	names := []string{"f(int)", "S", "N"}

	expected := []string{
		"f(int)",
		"f",
		"S::f(int)",
		"S::f",
		"N::S::f(int)",
		"N::S::f",
	}
	if diff := cmp.Diff(expected, namePermutations(names)); diff != "" {
		t.Errorf("unexpected permutations (-want +got):\n%s", diff)
	}
}

func TestNamePermutationsWithoutParameters(t *testing.T) {
	// A leaf without a parameter list produces one form per qualification.
	names := []string{"x", "N"}

	expected := []string{"x", "N::x"}
	if diff := cmp.Diff(expected, namePermutations(names)); diff != "" {
		t.Errorf("unexpected permutations (-want +got):\n%s", diff)
	}
}

func TestNamePermutationsEmpty(t *testing.T) {
	if permutations := namePermutations(nil); permutations != nil {
		t.Errorf("unexpected permutations. want=%v have=%v", nil, permutations)
	}
}
