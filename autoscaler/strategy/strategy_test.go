package strategy

import (
	"testing"

	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
)

func testSnapshot() *structs.InstanceSnapshot {
	return &structs.InstanceSnapshot{
		ProjectID:     "test-project",
		InstanceID:    "test-instance",
		Units:         structs.UnitsNodes,
		CurrentSize:   4,
		MinSize:       1,
		MaxSize:       10,
		ScalingMethod: "STEPWISE",
	}
}

func TestStrategy_Normalize(t *testing.T) {
	type normalizeTest struct {
		input    string
		expected string
	}

	var normalizeTests = []normalizeTest{
		{"STEPWISE", "stepwise"},
		{"Linear", "linear"},
		{"../../etc/passwd", "etcpasswd"},
		{"my_method-2", "my_method-2"},
		{"sneaky..method", "sneakymethod"},
	}

	for _, test := range normalizeTests {
		actual := Normalize(test.input)
		if actual != test.expected {
			t.Fatalf("expected %q got %q", test.expected, actual)
		}
	}
}

func TestStrategy_ResolveKnownMethods(t *testing.T) {

	r := NewRegistry()

	for _, name := range []string{"STEPWISE", "LINEAR", "DIRECT", "stepwise"} {
		snap := testSnapshot()
		snap.ScalingMethod = name

		if _, ok := r.Resolve(snap).(Sizer); !ok {
			t.Fatalf("expected method %q to resolve to a Sizer", name)
		}
		if snap.ScalingMethod != name {
			t.Fatalf("expected the method %q to be preserved, got %q", name,
				snap.ScalingMethod)
		}
	}
}

func TestStrategy_ResolveUnknownFallsBack(t *testing.T) {

	r := NewRegistry()
	snap := testSnapshot()
	snap.ScalingMethod = "TELEPORT"

	method := r.Resolve(snap)

	if snap.ScalingMethod != DefaultMethod {
		t.Fatalf("expected the snapshot method to be rewritten to %q, got %q",
			DefaultMethod, snap.ScalingMethod)
	}
	if _, ok := method.(*Stepwise); !ok {
		t.Fatalf("expected the default method to be Stepwise, got %T", method)
	}
}

// legacySizer exposes only the deprecated sizing operation.
type legacySizer struct{}

func (l *legacySizer) CalculateSuggestedSize(snap *structs.InstanceSnapshot) int64 {
	return snap.MaxSize
}

func TestStrategy_SuggestLegacyMethod(t *testing.T) {

	r := NewRegistry()
	r.Register("LEGACY", &legacySizer{})

	snap := testSnapshot()
	snap.ScalingMethod = "LEGACY"

	suggested, err := Suggest(r.Resolve(snap), snap)
	if err != nil {
		t.Fatalf("expected nil error got %v", err)
	}
	if suggested != snap.MaxSize {
		t.Fatalf("expected %v got %v", snap.MaxSize, suggested)
	}
}

func TestStrategy_SuggestUnknownContract(t *testing.T) {

	snap := testSnapshot()

	if _, err := Suggest(struct{}{}, snap); err == nil {
		t.Fatalf("expected an error for a method with no sizing operation")
	}
}
