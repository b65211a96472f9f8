package gateway

// Config is the gateway server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// UpstreamURL is the backend completion endpoint the gateway translates
	// to (e.g., "http://localhost:8791/exec/chat").
	UpstreamURL string

	// Compress gzips outbound request frames when true. The backend accepts
	// both; compression only pays off for long conversations.
	Compress bool

	// GatewayName identifies this instance in published exchange events.
	GatewayName string
}
