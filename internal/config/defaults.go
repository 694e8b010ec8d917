package config

// DefaultServerURL is used when neither config nor environment name a tool server.
const DefaultServerURL = "http://localhost:8443"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 4251,
			Host: "localhost",
		},
		Client: ClientConfig{
			DefaultServerURL: DefaultServerURL,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/workbench",
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "text",
			Outputs: []string{"console"},
		},
	}
}
