package structs

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

const testSnapshotJSON = `{
	"projectId": "test-project",
	"instanceId": "test-instance",
	"units": "PROCESSING_UNITS",
	"currentSize": 300,
	"minSize": 100,
	"maxSize": 2000,
	"scaleOutCoolingMinutes": 5,
	"scaleInCoolingMinutes": 30,
	"overloadCoolingMinutes": 1,
	"isOverloaded": true,
	"scalingMethod": "LINEAR",
	"downstreamTopic": "autoscaler-events",
	"stateStore": {"backend": "redis", "address": "localhost:6379"},
	"metrics": [
		{"name": "high_priority_cpu", "value": 85.5, "threshold": 65, "margin": 5}
	]
}`

func TestSnapshot_ParseSnapshot(t *testing.T) {

	snap, err := ParseSnapshot([]byte(testSnapshotJSON))
	if err != nil {
		t.Fatalf("expected nil error got %v", err)
	}

	expected := &InstanceSnapshot{
		ProjectID:              "test-project",
		InstanceID:             "test-instance",
		Units:                  UnitsProcessingUnits,
		CurrentSize:            300,
		MinSize:                100,
		MaxSize:                2000,
		ScaleOutCoolingMinutes: 5,
		ScaleInCoolingMinutes:  30,
		OverloadCoolingMinutes: 1,
		IsOverloaded:           true,
		ScalingMethod:          "LINEAR",
		DownstreamTopic:        "autoscaler-events",
		StateStore: &StateStoreConfig{
			Backend: "redis",
			Address: "localhost:6379",
		},
		Metrics: []Metric{
			{Name: "high_priority_cpu", Value: 85.5, Threshold: 65, Margin: 5},
		},
	}

	if !reflect.DeepEqual(snap, expected) {
		t.Fatalf("expected %+v got %+v", expected, snap)
	}
}

func TestSnapshot_ParseSnapshotMalformed(t *testing.T) {

	if _, err := ParseSnapshot([]byte("{not json")); err == nil {
		t.Fatalf("expected an error for a malformed payload")
	}
}

func TestSnapshot_ParseEnvelope(t *testing.T) {

	data := base64.StdEncoding.EncodeToString([]byte(testSnapshotJSON))
	payload := []byte(fmt.Sprintf(`{
		"message": {"data": %q, "messageId": "1234"},
		"subscription": "projects/test-project/subscriptions/autoscaler"
	}`, data))

	snap, err := ParseEnvelope(payload)
	if err != nil {
		t.Fatalf("expected nil error got %v", err)
	}
	if snap.Key() != "test-project/test-instance" {
		t.Fatalf("expected key %q got %q", "test-project/test-instance", snap.Key())
	}
}

func TestSnapshot_ParseEnvelopeBadData(t *testing.T) {

	payload := []byte(`{"message": {"data": "%%%not-base64%%%"}}`)
	if _, err := ParseEnvelope(payload); err == nil {
		t.Fatalf("expected an error for an undecodable envelope payload")
	}
}

func TestSnapshot_Validate(t *testing.T) {
	type validateTest struct {
		name     string
		mutate   func(s *InstanceSnapshot)
		expected string
	}

	var validateTests = []validateTest{
		{
			name:     "missing project",
			mutate:   func(s *InstanceSnapshot) { s.ProjectID = "" },
			expected: "projectId",
		},
		{
			name:     "missing instance",
			mutate:   func(s *InstanceSnapshot) { s.InstanceID = "" },
			expected: "instanceId",
		},
		{
			name:     "bad units",
			mutate:   func(s *InstanceSnapshot) { s.Units = "GIGAWATTS" },
			expected: "units",
		},
		{
			name:     "non-positive current size",
			mutate:   func(s *InstanceSnapshot) { s.CurrentSize = 0 },
			expected: "currentSize",
		},
		{
			name:     "max below min",
			mutate:   func(s *InstanceSnapshot) { s.MaxSize = 1; s.MinSize = 5 },
			expected: "maxSize",
		},
		{
			name:     "negative cooldown",
			mutate:   func(s *InstanceSnapshot) { s.ScaleInCoolingMinutes = -1 },
			expected: "cooldown",
		},
		{
			name:     "zero metric threshold",
			mutate:   func(s *InstanceSnapshot) { s.Metrics[0].Threshold = 0 },
			expected: "threshold",
		},
		{
			name:     "negative metric threshold",
			mutate:   func(s *InstanceSnapshot) { s.Metrics[0].Threshold = -65 },
			expected: "threshold",
		},
	}

	for _, test := range validateTests {
		snap, err := ParseSnapshot([]byte(testSnapshotJSON))
		if err != nil {
			t.Fatalf("expected nil error got %v", err)
		}

		test.mutate(snap)

		err = snap.Validate()
		if err == nil {
			t.Fatalf("%s: expected a validation error", test.name)
		}
		if !strings.Contains(err.Error(), test.expected) {
			t.Fatalf("%s: expected the error to mention %q, got %v", test.name,
				test.expected, err)
		}
	}
}

func TestSnapshot_ValidateAccumulates(t *testing.T) {

	snap := &InstanceSnapshot{}
	err := snap.Validate()
	if err == nil {
		t.Fatalf("expected a validation error for an empty snapshot")
	}

	for _, field := range []string{"projectId", "instanceId", "units",
		"currentSize", "minSize"} {
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("expected the error to mention %q, got %v", field, err)
		}
	}
}
