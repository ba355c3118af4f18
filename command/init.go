package command

import (
	"fmt"
	"os"
	"strings"
)

const (
	// DefaultInitName is the default name we use when initializing the
	// example snapshot file.
	DefaultInitName = "example.json"
)

// InitCommand is a Command implementation that writes an example instance
// snapshot document to the current directory.
type InitCommand struct {
	Meta
}

// Help provides the help information for the init command.
func (c *InitCommand) Help() string {
	helpText := `
Usage: autoscaler init

  Creates an example instance snapshot document that can be used as a
  starting point to customize further. The example can be posted to a
  running agent at /v1/scale.
`
	return strings.TrimSpace(helpText)
}

// Synopsis provides a brief summary of the init command.
func (c *InitCommand) Synopsis() string {
	return "Create an example instance snapshot document"
}

// Run triggers the init command to write the example.json file out to the
// current directory.
func (c *InitCommand) Run(args []string) int {

	// The command should be used with 0 extra flags.
	if len(args) != 0 {
		c.UI.Error(c.Help())
		return 1
	}

	// Check if the file already exists.
	_, err := os.Stat(DefaultInitName)
	if err != nil && !os.IsNotExist(err) {
		c.UI.Error(fmt.Sprintf("Failed to stat '%s': %v", DefaultInitName, err))
		return 1
	}
	if !os.IsNotExist(err) {
		c.UI.Error(fmt.Sprintf("Snapshot document '%s' already exists", DefaultInitName))
		return 1
	}

	// Write the example file to the relative local directory where the
	// autoscaler was invoked from.
	err = os.WriteFile(DefaultInitName, []byte(defaultSnapshotDocument+"\n"), 0660)
	if err != nil {
		c.UI.Error(fmt.Sprintf("Failed to write '%s': %v", DefaultInitName, err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("Example snapshot document written to %s", DefaultInitName))
	return 0
}

var defaultSnapshotDocument = strings.TrimSpace(`
{
  "projectId": "example-project",
  "instanceId": "example-instance",
  "units": "NODES",
  "currentSize": 1,
  "minSize": 1,
  "maxSize": 10,
  "scaleOutCoolingMinutes": 5,
  "scaleInCoolingMinutes": 30,
  "isOverloaded": false,
  "scalingMethod": "STEPWISE",
  "downstreamTopic": "autoscaler-events",
  "metrics": [
    {"name": "high_priority_cpu", "value": 85.0, "threshold": 65.0, "margin": 5.0},
    {"name": "storage", "value": 40.0, "threshold": 75.0, "margin": 5.0}
  ]
}
`)
