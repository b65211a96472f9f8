package config

const (
	defaultStorageDriver = "inmemory"
	defaultGatewayListen = ":8080"
	defaultUpstream      = "http://localhost:8791"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "wireline.exchanges"

	defaultClientGatewayTarget = "http://localhost:8080"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		Gateway: GatewayConfig{
			Listen: defaultGatewayListen,
		},
		Upstream: UpstreamConfig{
			Target: defaultUpstream,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
		Client: ClientConfig{
			GatewayTarget: defaultClientGatewayTarget,
		},
	}
}
