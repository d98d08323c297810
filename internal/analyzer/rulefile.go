package analyzer

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk format of custom pattern rules:
//
//	rules:
//	  - category: ai_transition
//	    pattern: '(?i)\bneedless to say\b'
//	    weight: 12
//	    label: needless to say
type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	Category string  `yaml:"category"`
	Pattern  string  `yaml:"pattern"`
	Weight   float64 `yaml:"weight"`
	Label    string  `yaml:"label"`
}

// ParseRules decodes and validates YAML pattern rules
func ParseRules(data []byte) ([]PatternRule, error) {
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}

	rules := make([]PatternRule, 0, len(rf.Rules))
	for i, spec := range rf.Rules {
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: invalid pattern: %w", i, err)
		}
		label := spec.Label
		if label == "" {
			label = spec.Pattern
		}
		r := PatternRule{
			Matcher:  re,
			Weight:   spec.Weight,
			Category: Category(spec.Category),
			Label:    label,
		}
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, label, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// LoadRuleFile reads pattern rules from a YAML file
func LoadRuleFile(path string) ([]PatternRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return ParseRules(data)
}
