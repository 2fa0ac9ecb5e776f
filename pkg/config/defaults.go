package config

const (
	defaultClientAPITarget = "http://localhost:8000"
	defaultClientAPIPrefix = "/api/v1"
	defaultClientTimeout   = "5m"

	defaultChatSubject = "me"

	defaultPreviewListen = ":8000"
	defaultMCPListen     = ":8090"

	defaultEventsKafkaTopic = "folio.exchanges"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
			APIPrefix: defaultClientAPIPrefix,
			Timeout:   defaultClientTimeout,
		},
		Chat: ChatConfig{
			Subject: defaultChatSubject,
		},
		Preview: PreviewConfig{
			Listen: defaultPreviewListen,
		},
		MCP: MCPConfig{
			Listen: defaultMCPListen,
		},
		Events: EventsConfig{
			KafkaTopic: defaultEventsKafkaTopic,
		},
	}
}
