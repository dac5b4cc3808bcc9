package extractor

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aqlanhadi/rekon/extractor/common"
	"github.com/spf13/viper"
)

// RoleRule assigns a role to file names matching Pattern.
type RoleRule struct {
	Role    common.Role `mapstructure:"role"`
	Pattern string      `mapstructure:"pattern"`
}

// PortRule assigns Port to file names containing one of Tokens as a word.
type PortRule struct {
	Port   string   `mapstructure:"port"`
	Tokens []string `mapstructure:"tokens"`
}

type roleMatcher struct {
	role  common.Role
	regex *regexp.Regexp
}

type portToken struct {
	port  common.Port
	token string
}

// Classifier maps an uploaded file name to its role and port.
type Classifier struct {
	ports  []common.Port
	roles  []roleMatcher
	tokens []portToken
}

// NewClassifier validates the rules up front: every role and every port must
// be reachable and every pattern must compile. All problems are reported at once.
func NewClassifier(ports []common.Port, roles []RoleRule, portRules []PortRule) (*Classifier, error) {
	var errs []error
	c := &Classifier{ports: ports}

	if len(ports) == 0 {
		errs = append(errs, errors.New("no ports configured"))
	}
	known := map[common.Port]bool{}
	for _, p := range ports {
		if known[p] {
			errs = append(errs, fmt.Errorf("port %q listed twice", p))
		}
		known[p] = true
	}

	covered := map[common.Role]bool{}
	for i, rule := range roles {
		if !rule.Role.Valid() {
			errs = append(errs, fmt.Errorf("classifier.roles[%d]: unknown role %q", i, rule.Role))
			continue
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil || rule.Pattern == "" {
			errs = append(errs, fmt.Errorf("classifier.roles[%d]: invalid pattern %q", i, rule.Pattern))
			continue
		}
		covered[rule.Role] = true
		c.roles = append(c.roles, roleMatcher{role: rule.Role, regex: re})
	}
	for _, role := range common.Roles {
		if !covered[role] {
			errs = append(errs, fmt.Errorf("no classifier rule for role %q", role))
		}
	}

	tokened := map[common.Port]bool{}
	for i, rule := range portRules {
		port := common.Port(rule.Port)
		if !known[port] {
			errs = append(errs, fmt.Errorf("classifier.ports[%d]: %q is not a configured port", i, rule.Port))
			continue
		}
		for _, token := range rule.Tokens {
			token = strings.ToLower(strings.TrimSpace(token))
			if token == "" {
				continue
			}
			tokened[port] = true
			c.tokens = append(c.tokens, portToken{port: port, token: token})
		}
	}
	for _, p := range ports {
		if !tokened[p] {
			errs = append(errs, fmt.Errorf("no file name token for port %q", p))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// Ports returns the configured ports from viper.
func Ports() []common.Port {
	var ports []common.Port
	for _, p := range viper.GetStringSlice("ports") {
		if p = strings.TrimSpace(p); p != "" {
			ports = append(ports, common.Port(p))
		}
	}
	return ports
}

// LoadClassifier builds a Classifier from the current configuration.
func LoadClassifier() (*Classifier, error) {
	var roles []RoleRule
	if err := viper.UnmarshalKey("classifier.roles", &roles); err != nil {
		return nil, fmt.Errorf("classifier.roles: %w", err)
	}
	var portRules []PortRule
	if err := viper.UnmarshalKey("classifier.ports", &portRules); err != nil {
		return nil, fmt.Errorf("classifier.ports: %w", err)
	}
	return NewClassifier(Ports(), roles, portRules)
}

// Ports returns the ports in summary order.
func (c *Classifier) Ports() []common.Port {
	return c.ports
}

// Role returns the role of the first rule matching the base name.
func (c *Classifier) Role(filename string) (common.Role, bool) {
	base := filepath.Base(filename)
	for _, m := range c.roles {
		if m.regex.MatchString(base) {
			return m.role, true
		}
	}
	return "", false
}

// Port returns the port whose token appears as a word in the base name.
func (c *Classifier) Port(filename string) (common.Port, bool) {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, t := range c.tokens {
		for _, w := range words {
			if w == t.token {
				return t.port, true
			}
		}
	}
	return common.NoPort, false
}
