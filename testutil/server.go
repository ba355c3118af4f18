package testutil

import (
	"os/exec"
	"testing"

	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/hashicorp/consul/sdk/testutil"
)

// MakeClientWithConfig starts a throwaway Consul test server and returns an
// agent config pointed at it. Tests calling this are skipped when no consul
// binary is present on the host.
func MakeClientWithConfig(t *testing.T) (*structs.Config, *testutil.TestServer) {
	t.Helper()

	if _, err := exec.LookPath("consul"); err != nil {
		t.Skip("consul binary not found on $PATH, skipping")
	}

	srv, err := testutil.NewTestServerConfigT(t, nil)
	if err != nil {
		t.Fatalf("failed to start consul test server: %v", err)
	}

	config := &structs.Config{
		Consul:        srv.HTTPAddr,
		ConsulKeyRoot: "autoscaler/config",
		Kafka:         &structs.Kafka{},
		Telemetry:     &structs.Telemetry{},
	}

	return config, srv
}
