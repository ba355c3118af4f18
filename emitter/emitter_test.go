package emitter

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
)

func testSnapshot() *structs.InstanceSnapshot {
	return &structs.InstanceSnapshot{
		ProjectID:       "test-project",
		InstanceID:      "test-instance",
		Units:           structs.UnitsNodes,
		CurrentSize:     1,
		MinSize:         1,
		MaxSize:         10,
		DownstreamTopic: "autoscaler-events",
		Metrics: []structs.Metric{
			{Name: "high_priority_cpu", Value: 85, Threshold: 65, Margin: 5},
		},
	}
}

func TestEmitter_DownstreamEventWireFormat(t *testing.T) {

	payload, err := json.Marshal(NewDownstreamEvent(testSnapshot(), 3))
	if err != nil {
		t.Fatalf("expected nil error got %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(payload, &m); err != nil {
		t.Fatalf("expected nil error got %v", err)
	}

	// The wire layout is consumed by external systems and must remain
	// stable.
	expected := map[string]interface{}{
		"project_id":     "test-project",
		"instance_id":    "test-instance",
		"current_size":   float64(1),
		"suggested_size": float64(3),
		"units":          float64(0),
		"metrics": []interface{}{
			map[string]interface{}{
				"name":      "high_priority_cpu",
				"threshold": float64(65),
				"value":     float64(85),
				"margin":    float64(5),
			},
		},
	}

	if !reflect.DeepEqual(m, expected) {
		t.Fatalf("expected %+v got %+v", expected, m)
	}
}

func TestEmitter_DownstreamEventUnits(t *testing.T) {

	snap := testSnapshot()
	snap.Units = structs.UnitsProcessingUnits

	event := NewDownstreamEvent(snap, 300)
	if *event.Units != 1 {
		t.Fatalf("expected units 1 got %v", *event.Units)
	}

	snap.Units = structs.UnitsNodes
	event = NewDownstreamEvent(snap, 3)
	if *event.Units != 0 {
		t.Fatalf("expected units 0 got %v", *event.Units)
	}
}

func TestEmitter_NewProvider(t *testing.T) {

	config := &structs.Config{
		Kafka: &structs.Kafka{Brokers: []string{"localhost:9092"}},
	}

	e, err := NewProvider("kafka", config)
	if err != nil {
		t.Fatalf("expected nil error got %v", err)
	}
	if e.Name() != "kafka" {
		t.Fatalf("expected provider name kafka got %q", e.Name())
	}
	if err := e.Close(); err != nil {
		t.Fatalf("expected nil error got %v", err)
	}
}

func TestEmitter_NewProviderUnsupported(t *testing.T) {

	if _, err := NewProvider("carrier-pigeon", &structs.Config{}); err == nil {
		t.Fatalf("expected an error for an unsupported provider")
	}
}

func TestEmitter_NewKafkaProviderRequiresBrokers(t *testing.T) {

	if _, err := NewKafkaProvider(&structs.Kafka{}); err == nil {
		t.Fatalf("expected an error when no brokers are configured")
	}

	if _, err := NewKafkaProvider(nil); err == nil {
		t.Fatalf("expected an error when no kafka config is present")
	}
}
