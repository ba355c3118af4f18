package structs

// Config is the main configuration struct used to configure the autoscaler
// agent.
type Config struct {
	// BindAddress is the address the agent HTTP listener binds to.
	BindAddress string `mapstructure:"bind_address"`

	// HTTPPort is the port the agent HTTP listener binds to.
	HTTPPort string `mapstructure:"http_port"`

	// LogLevel is the level at which the application should log from.
	LogLevel string `mapstructure:"log_level"`

	// Consul is the location of the Consul instance or cluster endpoint used
	// as the default state store backend (may be an IP address or FQDN) with
	// port.
	Consul string `mapstructure:"consul"`

	// ConsulToken is the Consul ACL token used to access the Key/Value store
	// on a secure Consul installation.
	ConsulToken string `mapstructure:"consul_token"`

	// ConsulKeyRoot is the Consul key root location under which the agent
	// stores and fetches scaling state.
	ConsulKeyRoot string `mapstructure:"consul_key_root"`

	// Redis is the location of the Redis endpoint used when a snapshot
	// selects the redis state store backend.
	Redis string `mapstructure:"redis"`

	// ScalingConcurrency bounds the number of snapshots processed in
	// parallel by the agent.
	ScalingConcurrency int `mapstructure:"scaling_concurrency"`

	// Kafka is the configuration struct that controls message bus ingress
	// and downstream event publication.
	Kafka *Kafka `mapstructure:"kafka"`

	// Telemetry is the configuration struct that controls the telemetry
	// settings.
	Telemetry *Telemetry `mapstructure:"telemetry"`

	// DatabaseClient provides a client to interact with the database
	// instance admin API.
	DatabaseClient DatabaseClient

	// StoreFactory builds per-instance state stores.
	StoreFactory StateStoreFactory
}

// Kafka is the configuration struct for the message bus used for snapshot
// ingress and downstream event publication.
type Kafka struct {
	// Brokers is the list of broker address:port endpoints.
	Brokers []string `mapstructure:"brokers"`

	// IngressTopic is the topic from which instance snapshot envelopes are
	// consumed. Ingress is disabled when empty.
	IngressTopic string `mapstructure:"ingress_topic"`

	// GroupID is the consumer group the agent joins when consuming the
	// ingress topic.
	GroupID string `mapstructure:"group_id"`
}

// Telemetry is the struct that controls the telemetry configuration. If a
// value is present then telemetry is enabled. Currently statsd is only
// supported for sending telemetry.
type Telemetry struct {
	// StatsdAddress specifies the address of a statsd server to forward
	// metrics to and should include the port.
	StatsdAddress string `mapstructure:"statsd_address"`
}

// Merge merges two configurations.
func (c *Config) Merge(b *Config) *Config {
	config := *c

	if b.BindAddress != "" {
		config.BindAddress = b.BindAddress
	}

	if b.HTTPPort != "" {
		config.HTTPPort = b.HTTPPort
	}

	if b.LogLevel != "" {
		config.LogLevel = b.LogLevel
	}

	if b.Consul != "" {
		config.Consul = b.Consul
	}

	if b.ConsulToken != "" {
		config.ConsulToken = b.ConsulToken
	}

	if b.ConsulKeyRoot != "" {
		config.ConsulKeyRoot = b.ConsulKeyRoot
	}

	if b.Redis != "" {
		config.Redis = b.Redis
	}

	if b.ScalingConcurrency > 0 {
		config.ScalingConcurrency = b.ScalingConcurrency
	}

	// Apply the Kafka config
	if config.Kafka == nil && b.Kafka != nil {
		kafka := *b.Kafka
		config.Kafka = &kafka
	} else if b.Kafka != nil {
		config.Kafka = config.Kafka.Merge(b.Kafka)
	}

	// Apply the Telemetry config
	if config.Telemetry == nil && b.Telemetry != nil {
		telemetry := *b.Telemetry
		config.Telemetry = &telemetry
	} else if b.Telemetry != nil {
		config.Telemetry = config.Telemetry.Merge(b.Telemetry)
	}

	return &config
}

// Merge is used to merge two Kafka configurations together.
func (k *Kafka) Merge(b *Kafka) *Kafka {
	config := *k

	if len(b.Brokers) > 0 {
		config.Brokers = b.Brokers
	}

	if b.IngressTopic != "" {
		config.IngressTopic = b.IngressTopic
	}

	if b.GroupID != "" {
		config.GroupID = b.GroupID
	}

	return &config
}

// Merge is used to merge two Telemetry configurations together.
func (t *Telemetry) Merge(b *Telemetry) *Telemetry {
	config := *t

	if b.StatsdAddress != "" {
		config.StatsdAddress = b.StatsdAddress
	}

	return &config
}
