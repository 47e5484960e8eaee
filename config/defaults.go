package config

func defaultConfig() *Config {
	return &Config{
		DataDirectory: "~/.local/share/ahme",
		OllamaHost:    "http://localhost:11434",
		DefaultModel:  "llama3.1:latest",
	}
}

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/ahme",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Ollama: OllamaConfig{
			Host:         "http://localhost:11434",
			DefaultModel: "llama3.1:latest",
		},
		Search:         SearchConfig{Enabled: false},
		SecurityMethod: "plaintext",
	}
}

func GenerateSystemConfigTemplate() string {
	return `# AHME System Configuration
# Location: ~/.config/ahme/settings.toml
# This file uses TOML format: https://toml.io

# Directory where sessions and user config are stored
data_directory = "~/.local/share/ahme"
`
}

func GenerateUserConfigTemplate() string {
	return `# AHME User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

[ollama]
# Ollama server URL
host = "http://localhost:11434"

# Default model to use when starting a new session
default_model = "llama3.1:latest"

[search]
# Augment questions with live web results (requires a Tavily API key,
# stored separately via the credential store)
enabled = false

[gateway]
# Optional OpenAI-compatible gateway. When set, chat requests go through
# the gateway instead of the Ollama host above.
url = ""

[parser]
# Optional document parsing service for DOCX/PDF attachments.
url = ""

# Default system prompt for new sessions (optional)
# Example: "You are a concise writing assistant."
default_system_prompt = ""

# Credential storage: "plaintext" or "ssh_key"
security_method = "plaintext"
`
}
