package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/dbops-engineering/autoscaler/client"
)

// StateCommand is a Command implementation that allows operators to inspect
// the persisted scaling state of an instance and, if necessary, clear a
// wedged in-flight operation record.
type StateCommand struct {
	Meta
	args []string
}

// stateCommandConfig holds the parsed flags of a state command invocation.
type stateCommandConfig struct {
	config *structs.Config

	backend  string
	address  string
	project  string
	instance string
	clear    bool
	force    bool
}

// Help provides the help information for the state command.
func (c *StateCommand) Help() string {
	helpText := `
Usage: autoscaler state [options]

  Inspects the persisted scaling state record of a single database
  instance, and optionally clears the record of an in-flight resize
  operation.

  The persisted operation id is the cross-process scaling lock for an
  instance. Clearing it is a recovery action for records wedged by an
  operation the status API no longer knows about; the next snapshot
  processed for the instance will then be free to scale again.

  General Options:

    -consul=<address:port>
      The address of the Consul agent backing the state store. By
      default, this is localhost:8500.

    -consul-token=<token>
      The Consul ACL token to use when communicating with an ACL
      protected Consul cluster.

    -key-root=<key>
      The Key/Value store root location under which state records are
      kept. By default, this is autoscaler/config.

    -backend=<name>
      The state store backend, either consul or redis. The default
      is consul.

    -address=<address:port>
      The state store endpoint address. Defaults to the -consul value
      for the consul backend.

  State Options:

    -project=<id>
      The project identifier of the instance. Required.

    -instance=<id>
      The instance identifier. Required.

    -clear
      Clear the in-flight operation record for the instance.

    -force
      Suppress confirmation prompts when clearing the record.
`
	return strings.TrimSpace(helpText)
}

// Synopsis provides a brief summary of the state command.
func (c *StateCommand) Synopsis() string {
	return "Inspect or repair the persisted scaling state of an instance"
}

// Run triggers the state command to read the persisted state record and
// optionally clear its in-flight fields.
func (c *StateCommand) Run(args []string) int {

	// The operator must specify the instance to act upon.
	if len(args) == 0 {
		c.UI.Error(c.Help())
		return 1
	}

	c.args = args
	conf := c.parseFlags()
	if conf == nil {
		return 1
	}

	if conf.project == "" || conf.instance == "" {
		c.UI.Error("Both -project and -instance must be specified.")
		return 1
	}

	snap := &structs.InstanceSnapshot{
		ProjectID:  conf.project,
		InstanceID: conf.instance,
		StateStore: &structs.StateStoreConfig{
			Backend: conf.backend,
			Address: conf.address,
		},
	}

	store, err := client.NewStateStoreFactory(conf.config)(snap)
	if err != nil {
		c.UI.Error(fmt.Sprintf("An error occurred while attempting to open "+
			"the state store: %v", err))
		return 1
	}
	defer store.Close()

	ctx := context.Background()

	state, err := store.Get(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("An error occurred while attempting to read "+
			"the state record: %v", err))
		return 1
	}

	rendered, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		c.UI.Error(fmt.Sprintf("Failed to render the state record: %v", err))
		return 1
	}
	c.UI.Output(string(rendered))

	if !conf.clear {
		return 0
	}

	if !state.OperationInFlight() {
		c.UI.Warn("No operation is in flight for the instance, no action " +
			"required.")
		return 0
	}

	// If the user has not disabled confirmation prompts, ask for
	// confirmation before touching the record.
	if !conf.force {
		question := fmt.Sprintf("Are you sure you want to clear the record "+
			"of operation %q for instance %s/%s?\nIf the operation is still "+
			"running, the next snapshot may start a second resize.\n",
			state.ScalingOperationID, conf.project, conf.instance)

		answer, err := c.UI.Ask(fmt.Sprintf("%vConfirm [y/N]: ", question))
		if err != nil {
			c.UI.Error(fmt.Sprintf("Failed to parse answer: %v", err))
			return 1
		}

		if answer != "y" {
			c.UI.Output("No confirmation detected. For confirmation, an " +
				"exact 'y' is required.")
			return 0
		}
	}

	// Anchor the cooldown at the request timestamp, mirroring how the
	// tracker completes an operation it cannot read status for.
	state.LastScalingCompleteTimestamp = state.LastScalingTimestamp
	state.ClearInFlight()

	if err := store.Update(ctx, state); err != nil {
		c.UI.Error(fmt.Sprintf("An error occurred while attempting to "+
			"persist the cleared state record: %v", err))
		return 1
	}

	c.UI.Info(fmt.Sprintf("Successfully cleared the in-flight operation "+
		"record for instance %s/%s.", conf.project, conf.instance))

	return 0
}

func (c *StateCommand) parseFlags() *stateCommandConfig {
	conf := &stateCommandConfig{
		config: &structs.Config{
			Consul:        "localhost:8500",
			ConsulKeyRoot: "autoscaler/config",
		},
	}

	flags := c.Meta.FlagSet("state", FlagSetClient)
	flags.Usage = func() { c.UI.Error(c.Help()) }

	// General configuration flags.
	flags.StringVar(&conf.config.Consul, "consul", conf.config.Consul, "")
	flags.StringVar(&conf.config.ConsulToken, "consul-token", "", "")
	flags.StringVar(&conf.config.ConsulKeyRoot, "key-root",
		conf.config.ConsulKeyRoot, "")
	flags.StringVar(&conf.backend, "backend", client.StoreBackendConsul, "")
	flags.StringVar(&conf.address, "address", "", "")

	// State manipulation flags.
	flags.StringVar(&conf.project, "project", "", "")
	flags.StringVar(&conf.instance, "instance", "", "")
	flags.BoolVar(&conf.clear, "clear", false, "Clear the in-flight record")
	flags.BoolVar(&conf.force, "force", false, "Suppress confirmation prompts")

	if err := flags.Parse(c.args); err != nil {
		return nil
	}

	// Redis has no agent default here; the -address flag doubles as its
	// endpoint.
	if conf.backend == client.StoreBackendRedis {
		conf.config.Redis = conf.address
	}

	return conf
}
