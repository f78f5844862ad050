// Package access holds the static route to role table and the request
// principal it is evaluated against.
package access

import (
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/angelmondragon/pharmacy-inventory/pkg/enums"
)

// Level is the minimum standing a caller needs for a route.
type Level int

const (
	Public Level = iota
	Authenticated
	Admin
)

func (l Level) String() string {
	switch l {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Decision is the outcome of evaluating a request against the policy.
type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Rule binds a path pattern, optionally narrowed to some methods, to a Level.
// Patterns are slash separated: {name} matches one segment and a trailing *
// matches whatever remains.
type Rule struct {
	Pattern string
	Methods []string
	Level   Level
}

type compiledRule struct {
	Rule
	segments []string
	literals int
	params   int
	wildcard bool
	order    int
}

// Policy evaluates requests against a rule table. The most specific matching
// rule wins; requests no rule matches need the fallback level.
type Policy struct {
	rules    []compiledRule
	fallback Level
}

// NewPolicy compiles rules. The order of rules only breaks ties between
// equally specific patterns.
func NewPolicy(rules []Rule, fallback Level) (*Policy, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		c, err := compile(rule, i)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return moreSpecific(compiled[i], compiled[j])
	})
	return &Policy{rules: compiled, fallback: fallback}, nil
}

// DefaultPolicy is the application's route table.
func DefaultPolicy() *Policy {
	anyMethod := []string(nil)
	get := []string{http.MethodGet}
	p, err := NewPolicy([]Rule{
		{Pattern: "/login", Methods: anyMethod, Level: Public},
		{Pattern: "/register", Methods: anyMethod, Level: Public},
		{Pattern: "/static/*", Methods: anyMethod, Level: Public},
		{Pattern: "/403", Methods: anyMethod, Level: Public},
		{Pattern: "/404", Methods: anyMethod, Level: Public},
		{Pattern: "/health/*", Methods: anyMethod, Level: Public},
		{Pattern: "/metrics", Methods: anyMethod, Level: Public},
		{Pattern: "/api/auth/*", Methods: []string{http.MethodPost}, Level: Public},

		{Pattern: "/users", Methods: anyMethod, Level: Admin},
		{Pattern: "/users/delete/{id}", Methods: anyMethod, Level: Admin},
		{Pattern: "/assignRole/{userId}", Methods: anyMethod, Level: Admin},

		{Pattern: "/api/users", Methods: get, Level: Admin},
		{Pattern: "/api/users/search", Methods: get, Level: Admin},
		{Pattern: "/api/users/{id}", Methods: []string{http.MethodDelete}, Level: Admin},
		{Pattern: "/api/users/{id}/makeAdmin", Methods: []string{http.MethodPut}, Level: Admin},
		{Pattern: "/api/users/current", Methods: get, Level: Authenticated},
		{Pattern: "/api/products/histogram", Methods: get, Level: Admin},
	}, Authenticated)
	if err != nil {
		panic(err)
	}
	return p
}

// LevelFor returns the level the request needs.
func (p *Policy) LevelFor(method, requestPath string) Level {
	segments := splitPath(requestPath)
	for _, rule := range p.rules {
		if rule.matches(method, segments) {
			return rule.Level
		}
	}
	return p.fallback
}

// Decide evaluates principal against the rule for method and path. A nil
// principal is an anonymous caller.
func (p *Policy) Decide(principal *Principal, method, requestPath string) Decision {
	switch p.LevelFor(method, requestPath) {
	case Public:
		return Allow
	case Authenticated:
		if principal == nil {
			return Unauthenticated
		}
		return Allow
	default:
		if principal == nil {
			return Unauthenticated
		}
		if !principal.HasRole(enums.RoleAdmin) {
			return Forbidden
		}
		return Allow
	}
}

// IsAPIPath reports whether the request belongs to the JSON surface.
func IsAPIPath(requestPath string) bool {
	return requestPath == "/api" || strings.HasPrefix(requestPath, "/api/")
}

func compile(rule Rule, order int) (compiledRule, error) {
	if !strings.HasPrefix(rule.Pattern, "/") {
		return compiledRule{}, fmt.Errorf("access: pattern %q must start with /", rule.Pattern)
	}
	c := compiledRule{Rule: rule, segments: splitPath(rule.Pattern), order: order}
	for i, seg := range c.segments {
		switch {
		case seg == "*":
			if i != len(c.segments)-1 {
				return compiledRule{}, fmt.Errorf("access: wildcard must be the last segment in %q", rule.Pattern)
			}
			c.wildcard = true
		case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
			c.params++
		default:
			c.literals++
		}
	}
	c.Methods = make([]string, 0, len(rule.Methods))
	for _, m := range rule.Methods {
		c.Methods = append(c.Methods, strings.ToUpper(m))
	}
	return c, nil
}

func moreSpecific(a, b compiledRule) bool {
	if a.literals != b.literals {
		return a.literals > b.literals
	}
	if a.wildcard != b.wildcard {
		return !a.wildcard
	}
	if a.params != b.params {
		return a.params < b.params
	}
	if (len(a.Methods) > 0) != (len(b.Methods) > 0) {
		return len(a.Methods) > 0
	}
	return a.order < b.order
}

func (c compiledRule) matches(method string, segments []string) bool {
	if len(c.Methods) > 0 && !containsMethod(c.Methods, method) {
		return false
	}
	for i, seg := range c.segments {
		if seg == "*" {
			return true
		}
		if i >= len(segments) {
			return false
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if segments[i] == "" {
				return false
			}
			continue
		}
		if seg != segments[i] {
			return false
		}
	}
	return len(segments) == len(c.segments)
}

func containsMethod(methods []string, method string) bool {
	method = strings.ToUpper(method)
	for _, m := range methods {
		if m == method {
			return true
		}
		// HEAD is served by GET handlers
		if m == http.MethodGet && method == http.MethodHead {
			return true
		}
	}
	return false
}

func splitPath(p string) []string {
	cleaned := path.Clean("/" + p)
	if cleaned == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(cleaned, "/"), "/")
}
