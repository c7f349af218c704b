package segment

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the vocabulary and pattern set a Classifier is compiled from.
//
// SectionTitles and ContactPatterns are regular expression fragments.
// Section titles must match the whole trimmed paragraph, case-insensitively;
// contact patterns may match anywhere in it.
type Config struct {
	SectionTitles      []string `yaml:"section_titles"`
	ExtraSectionTitles []string `yaml:"extra_section_titles"`
	ContactPatterns    []string `yaml:"contact_patterns"`

	// MaxTitleLength is the longest text (in characters) that can still be a heading.
	MaxTitleLength int `yaml:"max_title_length"`
	// MinCapsLength is the shortest all-caps text treated as a section title.
	MinCapsLength int `yaml:"min_caps_length"`
}

// DefaultConfig returns the English resume vocabulary.
func DefaultConfig() Config {
	return Config{
		SectionTitles: []string{
			`summary`, `profile`, `objective`, `highlights?`,
			`experience`, `work experience`, `work history`, `professional experience`, `employment history`,
			`education`, `academic background`, `academic history`,
			`skills`, `technical skills`, `core competencies`, `key skills`, `areas of expertise`,
			`projects?`, `personal projects?`, `side projects?`,
			`certifications?`, `licenses?`, `credentials?`,
			`awards?`, `honors?`, `achievements?`,
			`publications?`, `research`,
			`volunteer(ing)?`, `community service`, `community involvement`,
			`languages?`,
			`interests?`, `hobbies`, `activities`,
			`references?`,
		},
		ContactPatterns: []string{
			`[\w.+-]+@[\w-]+\.[a-zA-Z]{2,}`,
			`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}`,
			`linkedin\.com`,
			`github\.com`,
			`gitlab\.com`,
			`portfolio`,
			`website`,
			`http`,
		},
		MaxTitleLength: 50,
		MinCapsLength:  3,
	}
}

// LoadConfig reads a YAML vocabulary file. Fields the file leaves out keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read classifier config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse classifier config: %w", err)
	}
	return cfg, nil
}

func (c Config) titles() []string {
	out := make([]string, 0, len(c.SectionTitles)+len(c.ExtraSectionTitles))
	out = append(out, c.SectionTitles...)
	return append(out, c.ExtraSectionTitles...)
}

func (c Config) validate() error {
	if len(c.titles()) == 0 {
		return fmt.Errorf("at least one section title is required")
	}
	if len(c.ContactPatterns) == 0 {
		return fmt.Errorf("at least one contact pattern is required")
	}
	if c.MaxTitleLength <= 0 {
		return fmt.Errorf("max_title_length must be positive")
	}
	if c.MinCapsLength <= 0 {
		return fmt.Errorf("min_caps_length must be positive")
	}
	return nil
}
