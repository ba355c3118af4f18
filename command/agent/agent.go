package agent

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	metrics "github.com/armon/go-metrics"
	"github.com/dbops-engineering/autoscaler/autoscaler"
	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/dbops-engineering/autoscaler/client"
	"github.com/dbops-engineering/autoscaler/command"
	"github.com/dbops-engineering/autoscaler/emitter"
	"github.com/dbops-engineering/autoscaler/logging"
	"github.com/dbops-engineering/autoscaler/version"
)

// Command is the agent command structure used to track passed args as well
// as the CLI meta.
type Command struct {
	command.Meta
	args []string
}

// Agent holds the running pieces of the autoscaler daemon so they can be
// stopped together.
type Agent struct {
	http    *HTTPServer
	ingress *IngressConsumer
	emitter emitter.Emitter
}

// NewAgent wires the database client, state store factory, downstream
// emitter and ingress surfaces together from the merged configuration.
func NewAgent(conf *structs.Config) (*Agent, error) {

	// The database client can be pre-populated on the config for testing;
	// otherwise the instance admin API client is built here.
	database := conf.DatabaseClient
	if database == nil {
		d, err := client.NewSpannerAdmin(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to setup the database admin client: %v", err)
		}
		database = d
	}

	stores := conf.StoreFactory
	if stores == nil {
		stores = client.NewStateStoreFactory(conf)
	}

	var em emitter.Emitter
	if len(conf.Kafka.Brokers) > 0 {
		e, err := emitter.NewProvider("kafka", conf)
		if err != nil {
			return nil, fmt.Errorf("failed to setup the downstream emitter: %v", err)
		}
		em = e
	} else {
		logging.Warning("command/agent: no kafka brokers configured, " +
			"downstream events will not be emitted")
	}

	scaler := autoscaler.NewScaler(database, stores, em)

	srv, err := NewHTTPServer(conf, scaler)
	if err != nil {
		return nil, err
	}

	agent := &Agent{
		http:    srv,
		emitter: em,
	}

	if conf.Kafka.IngressTopic != "" {
		agent.ingress = NewIngressConsumer(conf, scaler)
	}

	return agent, nil
}

// Stop shuts the agent surfaces down, draining in-flight ingress
// evaluations first.
func (a *Agent) Stop() {
	a.ingress.Stop()
	a.http.Shutdown()

	if a.emitter != nil {
		if err := a.emitter.Close(); err != nil {
			logging.Error("command/agent: failed to close the downstream "+
				"emitter: %v", err)
		}
	}
}

// Run triggers a run of the autoscaler agent by setting up and parsing the
// configuration and then initiating a new agent.
func (c *Command) Run(args []string) int {

	c.args = args
	conf := c.parseFlags()
	if conf == nil {
		return 1
	}

	// Set the logging level for the logger.
	logging.SetLevel(conf.LogLevel)

	// Initialize telemetry if this was configured by the user.
	if conf.Telemetry.StatsdAddress != "" {
		sink, statsErr := metrics.NewStatsdSink(conf.Telemetry.StatsdAddress)
		if statsErr != nil {
			c.UI.Error(fmt.Sprintf("unable to setup telemetry correctly: %v", statsErr))
			return 1
		}
		metrics.NewGlobal(metrics.DefaultConfig("autoscaler"), sink)
	}

	agent, err := NewAgent(conf)
	if err != nil {
		c.UI.Error(fmt.Sprintf("unable to setup the agent: %v", err))
		return 1
	}

	logging.Info("command/agent: running version %v", version.Get())
	logging.Info("command/agent: starting autoscaler agent...")

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	for {
		select {
		case s := <-signalCh:
			switch s {
			case syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				agent.Stop()
				return 0

			case syscall.SIGHUP:
				agent.Stop()

				// Reload the configuration in order to make proper use of
				// SIGHUP.
				conf := c.parseFlags()
				if conf == nil {
					return 1
				}
				logging.SetLevel(conf.LogLevel)

				// Setup a new agent with the new configuration.
				agent, err = NewAgent(conf)
				if err != nil {
					c.UI.Error(fmt.Sprintf("unable to setup the agent: %v", err))
					return 1
				}
			}
		}
	}
}

func (c *Command) parseFlags() *structs.Config {

	var configPath string
	var kafkaBrokers string

	// An empty new config is setup here to allow us to fill this with any
	// passed cli flags for later merging.
	cliConfig := &structs.Config{
		Kafka:     &structs.Kafka{},
		Telemetry: &structs.Telemetry{},
	}

	flags := c.Meta.FlagSet("agent", command.FlagSetClient)
	flags.Usage = func() { c.UI.Error(c.Help()) }

	flags.StringVar(&configPath, "config", "", "")

	// Top level configuration flags
	flags.StringVar(&cliConfig.BindAddress, "bind-address", "", "")
	flags.StringVar(&cliConfig.HTTPPort, "http-port", "", "")
	flags.StringVar(&cliConfig.LogLevel, "log-level", "", "")
	flags.StringVar(&cliConfig.Consul, "consul", "", "")
	flags.StringVar(&cliConfig.ConsulToken, "consul-token", "", "")
	flags.StringVar(&cliConfig.ConsulKeyRoot, "consul-key-root", "", "")
	flags.StringVar(&cliConfig.Redis, "redis", "", "")
	flags.IntVar(&cliConfig.ScalingConcurrency, "scaling-concurrency", 0, "")

	// Kafka configuration flags
	flags.StringVar(&kafkaBrokers, "kafka-brokers", "", "")
	flags.StringVar(&cliConfig.Kafka.IngressTopic, "kafka-ingress-topic", "", "")
	flags.StringVar(&cliConfig.Kafka.GroupID, "kafka-group-id", "", "")

	// Telemetry configuration flags
	flags.StringVar(&cliConfig.Telemetry.StatsdAddress, "statsd-address", "", "")

	if err := flags.Parse(c.args); err != nil {
		return nil
	}

	if kafkaBrokers != "" {
		cliConfig.Kafka.Brokers = strings.Split(kafkaBrokers, ",")
	}

	// Load the default configuration which will be the basis for merging
	// with the supplied configuration file(s)
	config := DefaultConfig()

	if configPath != "" {
		current, err := LoadConfig(configPath)
		if err != nil {
			c.UI.Error(fmt.Sprintf("Error loading configuration from %s: %s", configPath, err))
			return nil
		}

		config = config.Merge(current)
	}

	config = config.Merge(cliConfig)
	return config
}

// Help provides the help information for the agent command.
func (c *Command) Help() string {
	helpText := `
  Usage: autoscaler agent [options]

    Starts the Autoscaler agent and runs until an interrupt is received.
    The Autoscaler agent's configuration primarily comes from the config
    files used. If no config file is passed, a default config will be
    used.

  General Options:

    -config=<path>
      The path to either a single config file or a directory of config
      files to use for configuring the Autoscaler agent. Autoscaler
      processes configuration files in lexicographic order.

    -bind-address=<address>
      The local address the agent HTTP listener binds to. By default,
      this is 127.0.0.1.

    -http-port=<port>
      The port the agent HTTP listener binds to. By default, this is
      8090.

    -log-level=<level>
      Specify the verbosity level of Autoscaler's logs. The default is
      INFO.

    -consul=<address:port>
      This is the address of the Consul agent backing the default state
      store. By default, this is localhost:8500, which is the default
      bind and port for a local Consul agent.

    -consul-token=<token>
      The Consul ACL token to use when communicating with an ACL
      protected Consul cluster.

    -consul-key-root=<key>
      The Consul Key/Value Store root location under which scaling state
      records are kept. By default, this is autoscaler/config.

    -redis=<address:port>
      The address of the Redis server to use for instances configured
      with the redis state store backend.

    -scaling-concurrency=<num>
      The maximum number of instance snapshots evaluated at the same
      time from the ingress topic. The default is 10.

    -kafka-brokers=<address:port,...>
      A comma separated list of Kafka broker addresses used for both the
      ingress topic and downstream event emission. If no brokers are
      supplied, downstream events are not emitted.

    -kafka-ingress-topic=<topic>
      The Kafka topic to consume instance snapshot envelopes from. If no
      topic is supplied, the agent only accepts snapshots over HTTP.

    -kafka-group-id=<id>
      The Kafka consumer group id the ingress consumer joins. The
      default is autoscaler.

    -statsd-address=<address:port>
      Specifies the address of a statsd server to forward metrics
      to and should include the port.

`
	return strings.TrimSpace(helpText)
}

// Synopsis provides a brief summary of the agent command.
func (c *Command) Synopsis() string {
	return "Runs an Autoscaler agent"
}
