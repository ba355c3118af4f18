package structs

import (
	"reflect"
	"testing"
)

func TestConfig_Merge(t *testing.T) {

	base := &Config{
		BindAddress:        "127.0.0.1",
		HTTPPort:           "8090",
		LogLevel:           "INFO",
		Consul:             "localhost:8500",
		ConsulKeyRoot:      "autoscaler/config",
		ScalingConcurrency: 10,
		Kafka:              &Kafka{GroupID: "autoscaler"},
		Telemetry:          &Telemetry{},
	}

	overlay := &Config{
		LogLevel:           "DEBUG",
		Consul:             "consul.example.com:8500",
		ConsulToken:        "supersecret",
		Redis:              "localhost:6379",
		ScalingConcurrency: 4,
		Kafka: &Kafka{
			Brokers:      []string{"kafka-1:9092", "kafka-2:9092"},
			IngressTopic: "autoscaler-snapshots",
		},
		Telemetry: &Telemetry{StatsdAddress: "localhost:8125"},
	}

	merged := base.Merge(overlay)

	expected := &Config{
		BindAddress:        "127.0.0.1",
		HTTPPort:           "8090",
		LogLevel:           "DEBUG",
		Consul:             "consul.example.com:8500",
		ConsulToken:        "supersecret",
		ConsulKeyRoot:      "autoscaler/config",
		Redis:              "localhost:6379",
		ScalingConcurrency: 4,
		Kafka: &Kafka{
			Brokers:      []string{"kafka-1:9092", "kafka-2:9092"},
			IngressTopic: "autoscaler-snapshots",
			GroupID:      "autoscaler",
		},
		Telemetry: &Telemetry{StatsdAddress: "localhost:8125"},
	}

	if !reflect.DeepEqual(merged, expected) {
		t.Fatalf("expected %+v got %+v", expected, merged)
	}
}

func TestConfig_MergeEmptyOverlay(t *testing.T) {

	base := &Config{
		BindAddress:        "127.0.0.1",
		HTTPPort:           "8090",
		LogLevel:           "INFO",
		ScalingConcurrency: 10,
		Kafka:              &Kafka{GroupID: "autoscaler"},
		Telemetry:          &Telemetry{},
	}

	merged := base.Merge(&Config{})

	if !reflect.DeepEqual(merged, base) {
		t.Fatalf("expected %+v got %+v", base, merged)
	}
}

func TestConfig_MergePopulatesNilBlocks(t *testing.T) {

	base := &Config{}
	overlay := &Config{
		Kafka:     &Kafka{IngressTopic: "autoscaler-snapshots"},
		Telemetry: &Telemetry{StatsdAddress: "localhost:8125"},
	}

	merged := base.Merge(overlay)

	if merged.Kafka == nil || merged.Kafka.IngressTopic != "autoscaler-snapshots" {
		t.Fatalf("expected the kafka block to be populated, got %+v", merged.Kafka)
	}
	if merged.Telemetry == nil || merged.Telemetry.StatsdAddress != "localhost:8125" {
		t.Fatalf("expected the telemetry block to be populated, got %+v",
			merged.Telemetry)
	}
}
