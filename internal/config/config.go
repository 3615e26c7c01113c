package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// IdentifierField is the source name of the top-level work-item identifier.
// The first column of every column list must read from it.
const IdentifierField = "System.Id"

// LinkPlaceholder is the token in link_template replaced by the work-item id.
const LinkPlaceholder = "{id}"

// Shift selector names every config must define.
var RequiredShifts = []string{"morning", "evening", "night"}

// Credential-failure policies.
const (
	PolicyContinue = "continue"
	PolicyAbort    = "abort"
)

// Config models shiftreport.yml.
type Config struct {
	Server struct {
		URL        string `yaml:"url"`
		Project    string `yaml:"project"`
		APIVersion string `yaml:"api_version"`
	} `yaml:"server"`
	Columns      []Column         `yaml:"columns"`
	LinkTemplate string           `yaml:"link_template"`
	Shifts       map[string]Shift `yaml:"shifts"`
	Mail         Mail             `yaml:"mail"`
	Auth         Auth             `yaml:"auth"`
}

// Column pairs a display name with the nested source field it reads.
type Column struct {
	Display string `yaml:"display"`
	Field   string `yaml:"field"`
}

// Shift is a UTC hour range. End at or before Start means the window wraps
// past midnight (the night shift).
type Shift struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

type Mail struct {
	To            string `yaml:"to"`
	From          string `yaml:"from"`
	SubjectPrefix string `yaml:"subject_prefix"`
	SMTPAddr      string `yaml:"smtp_addr"`
	Greeting      string `yaml:"greeting"`
	Closing       string `yaml:"closing"`
}

type Auth struct {
	Env               string `yaml:"env"`
	TokenFile         string `yaml:"token_file"`
	OnCredentialError string `yaml:"on_credential_error"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with sr config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("config.server.url is required")
	}
	if c.Server.Project == "" {
		return fmt.Errorf("config.server.project is required")
	}
	if len(c.Columns) == 0 {
		return fmt.Errorf("config.columns is required")
	}
	seen := map[string]bool{}
	for i, col := range c.Columns {
		if col.Display == "" {
			return fmt.Errorf("column %d has empty display name", i)
		}
		if col.Field == "" {
			return fmt.Errorf("column %q has empty source field", col.Display)
		}
		if seen[col.Display] {
			return fmt.Errorf("duplicate column display name %q", col.Display)
		}
		seen[col.Display] = true
	}
	if c.Columns[0].Field != IdentifierField {
		return fmt.Errorf("first column must read %s, got %s", IdentifierField, c.Columns[0].Field)
	}
	if !strings.Contains(c.LinkTemplate, LinkPlaceholder) {
		return fmt.Errorf("config.link_template must contain %s", LinkPlaceholder)
	}
	for _, name := range RequiredShifts {
		s, ok := c.Shifts[name]
		if !ok {
			return fmt.Errorf("config.shifts must define %s", name)
		}
		if s.Start < 0 || s.Start > 23 || s.End < 0 || s.End > 23 {
			return fmt.Errorf("shift %s hours must be within 0-23", name)
		}
	}
	switch c.Auth.OnCredentialError {
	case "", PolicyContinue, PolicyAbort:
	default:
		return fmt.Errorf("config.auth.on_credential_error must be %s or %s", PolicyContinue, PolicyAbort)
	}
	if c.Mail.SMTPAddr != "" {
		if c.Mail.To == "" || c.Mail.From == "" {
			return fmt.Errorf("config.mail.to and config.mail.from are required when smtp_addr is set")
		}
	}
	return nil
}

// CredentialPolicy returns the configured policy, defaulting to continue.
func (c *Config) CredentialPolicy() string {
	if c.Auth.OnCredentialError == "" {
		return PolicyContinue
	}
	return c.Auth.OnCredentialError
}

// SourceFields returns every column's source field name in column order,
// identifier column included, for the WIQL SELECT clause.
func (c *Config) SourceFields() []string {
	fields := make([]string, 0, len(c.Columns))
	for _, col := range c.Columns {
		fields = append(fields, col.Field)
	}
	return fields
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "shiftreport.yml")
}

// GenerateDefault returns default config YAML for a project.
func GenerateDefault(serverURL, project string) string {
	return fmt.Sprintf(defaultTemplate, serverURL, project, project)
}

// Default returns the default Config struct for a project.
func Default(serverURL, project string) *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(GenerateDefault(serverURL, project))).Decode(&cfg)
	return &cfg
}

const defaultTemplate = `server:
  url: %s
  project: %s
  api_version: "6.0"

columns:
  - display: ID
    field: System.Id
  - display: Title
    field: System.Title
  - display: State
    field: System.State
  - display: Priority
    field: Microsoft.VSTS.Common.Severity
  - display: Assigned To
    field: System.AssignedTo
  - display: Created Date
    field: System.CreatedDate

link_template: /%s/_workitems/edit/{id}

shifts:
  morning:
    start: 6
    end: 14
  evening:
    start: 14
    end: 22
  night:
    start: 22
    end: 6

mail:
  to: oncall@example.com
  from: shiftreport@example.com
  subject_prefix: "[shift report]"
  smtp_addr: localhost:25
  greeting: "Hello team,<br>here are the work items from the last shift:"
  closing: "Handled by the shift report bot."

auth:
  env: SHIFTREPORT_PAT
  token_file: .pat
  on_credential_error: continue
`
