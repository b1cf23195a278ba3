package store

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int
}

// CHConfig configures the clickhouse run log
type CHConfig struct {
	Enabled bool
	URL     string

	// ClientTag annotates the connection's client info (build version)
	ClientTag string
}
