package commands

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/enesbrtc/enes.codes/configs"
)

// Content is the text catalog printed by the informational commands.
type Content struct {
	Host  string              `yaml:"host"`
	Help  HelpContent         `yaml:"help"`
	Boot  BootContent         `yaml:"boot"`
	Pages map[string][]string `yaml:"pages"`
}

type HelpContent struct {
	General  []string            `yaml:"general"`
	Commands map[string][]string `yaml:"commands"`
	SSH      []string            `yaml:"ssh"`
}

type BootContent struct {
	Welcome   []string `yaml:"welcome"`
	Tip       []string `yaml:"tip"`
	Banner    []string `yaml:"banner"`
	LastLogin []string `yaml:"last_login"`
}

var requiredPages = []string{
	"whoami", "uptime",
	"projects", "stack", "experience", "now", "contact", "resume",
	"hello", "hi", "coffee", "why", "reboot", "whois", "legacy", "404",
}

func ParseContent(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadContent parses the shipped catalog.
func LoadContent() (*Content, error) {
	return ParseContent(configs.Content)
}

func (c *Content) validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("content: host is required")
	}
	if len(c.Help.General) == 0 {
		return fmt.Errorf("content: help.general is required")
	}
	if len(c.Help.SSH) == 0 {
		return fmt.Errorf("content: help.ssh is required")
	}
	if len(c.Boot.Banner) == 0 {
		return fmt.Errorf("content: boot.banner is required")
	}
	var missing []string
	for _, name := range requiredPages {
		if len(c.Pages[name]) == 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("content: missing pages: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Page returns a copy of the named page.
func (c *Content) Page(name string) []string {
	return append([]string(nil), c.Pages[name]...)
}

// CommandHelp returns the detailed help for one command.
func (c *Content) CommandHelp(name string) ([]string, bool) {
	lines, ok := c.Help.Commands[strings.ToLower(name)]
	return append([]string(nil), lines...), ok
}
