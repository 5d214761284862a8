package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL    = "https://api.github.com/"
	DefaultNotifyURL = "https://notify.bot.codex.so/u/"

	// TokenEnv is consulted when the configuration file has no token
	TokenEnv = "GITHUB_TOKEN"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration
type Config struct {
	Token         string       `yaml:"token"`
	APIURL        string       `yaml:"api_url"`
	NotifyURL     string       `yaml:"notify_url"`
	CommentPolicy string       `yaml:"comment_policy"`
	Repositories  Repositories `yaml:"repositories"`
}

// Repository holds the settings of one watched repository
type Repository struct {
	Key         string   `yaml:"-"`
	Owner       string   `yaml:"owner"`
	Name        string   `yaml:"name"`
	Maintainers []string `yaml:"maintainers"`
	Chat        string   `yaml:"chat"`
}

// FullName returns owner/name
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// IsMaintainer reports whether login is in the maintainer allow-list
func (r Repository) IsMaintainer(login string) bool {
	return slices.Contains(r.Maintainers, login)
}

// Repositories is decoded from a YAML mapping and keeps the document order of its keys
type Repositories []Repository

// UnmarshalYAML implements yaml.Unmarshaler
func (rs *Repositories) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		*rs = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: repositories must be a mapping", value.Line)
	}

	seen := make(map[string]bool, len(value.Content)/2)
	out := make(Repositories, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		if seen[keyNode.Value] {
			return fmt.Errorf("line %d: duplicate repository key %q", keyNode.Line, keyNode.Value)
		}
		seen[keyNode.Value] = true

		var repo Repository
		if err := valNode.Decode(&repo); err != nil {
			return fmt.Errorf("repository %q: %w", keyNode.Value, err)
		}
		repo.Key = keyNode.Value
		out = append(out, repo)
	}
	*rs = out
	return nil
}

// Load reads, parses and validates the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading configuration file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document into a validated Config
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	config.Token = strings.TrimSpace(config.Token)
	if config.Token == "" {
		config.Token = strings.TrimSpace(os.Getenv(TokenEnv))
	}
	if config.APIURL == "" {
		config.APIURL = DefaultAPIURL
	}
	if config.NotifyURL == "" {
		config.NotifyURL = DefaultNotifyURL
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks that every required setting is present
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("%w: token is required (or set %s)", ErrInvalid, TokenEnv)
	}
	switch c.CommentPolicy {
	case "", "first", "last":
	default:
		return fmt.Errorf("%w: unknown comment_policy %q (use first or last)", ErrInvalid, c.CommentPolicy)
	}
	for _, repo := range c.Repositories {
		var missing []string
		if repo.Owner == "" {
			missing = append(missing, "owner")
		}
		if repo.Name == "" {
			missing = append(missing, "name")
		}
		if repo.Chat == "" {
			missing = append(missing, "chat")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: repository %q is missing %s", ErrInvalid, repo.Key, strings.Join(missing, ", "))
		}
	}
	return nil
}
