// Package config holds the server configuration, loaded from a YAML file
// with flag and environment overrides applied by the CLI.
package config

import (
	"fmt"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"
)

// Server holds all configuration for the quiz server.
type Server struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	TCPPort     int    `yaml:"tcp_port"`
	UDPPort     int    `yaml:"udp_port"`

	// Name advertised in discovery replies.
	Name string `yaml:"name"`

	// Data files
	QuestionsFile string `yaml:"questions_file"`
	AccountsFile  string `yaml:"accounts_file"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// TCPAddr returns the TCP listen address.
func (s Server) TCPAddr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.TCPPort)
}

// UDPAddr returns the UDP discovery listen address.
func (s Server) UDPAddr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.UDPPort)
}

// Default returns a Server config with sensible defaults. The server name
// gets a random numeric suffix so several instances on one LAN stay apart.
func Default() Server {
	return Server{
		BindAddress:   "0.0.0.0",
		TCPPort:       5556,
		UDPPort:       5555,
		Name:          fmt.Sprintf("QuizNet #%04d", rand.IntN(10000)),
		QuestionsFile: "data/questions.dat",
		AccountsFile:  "data/accounts.dat",
		LogLevel:      "info",
	}
}

// Load loads the server config from a YAML file. If the file doesn't exist,
// returns defaults.
func Load(path string) (Server, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
