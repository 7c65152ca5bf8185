package rules

import (
	"fmt"
	"strings"
	"sync"
)

// Order is the fixed evaluation order. Only these IDs can be registered.
var Order = []string{
	"files",
	"in_time",
	"founded_by",
	"author_rights",
	"cc_licence",
}

var (
	registry = make(map[string]Rule)
	mu       sync.RWMutex
)

func known(id string) bool {
	for _, o := range Order {
		if o == id {
			return true
		}
	}
	return false
}

func Register(r Rule) {
	mu.Lock()
	defer mu.Unlock()
	if !known(r.ID()) {
		panic(fmt.Sprintf("rule %s is not part of the evaluation order", r.ID()))
	}
	if _, exists := registry[r.ID()]; exists {
		panic(fmt.Sprintf("rule %s already registered", r.ID()))
	}
	// Wrap the rule with AllowListWrapper to provide automatic allowlist support
	registry[r.ID()] = &AllowListWrapper{Rule: r}
}

// List returns the registered rules in evaluation order.
func List() []Rule {
	mu.RLock()
	defer mu.RUnlock()
	return list()
}

func list() []Rule {
	var out []Rule
	for _, id := range Order {
		if r, ok := registry[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Complete returns an error naming every rule of the evaluation order that is not
// registered.
func Complete() error {
	mu.RLock()
	defer mu.RUnlock()
	var missing []string
	for _, id := range Order {
		if _, ok := registry[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("rules not registered: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Resolve returns the rules named by a comma-separated selector, in selector order.
// An empty selector selects every registered rule.
func Resolve(selector string) ([]Rule, error) {
	mu.RLock()
	defer mu.RUnlock()

	if strings.TrimSpace(selector) == "" {
		return list(), nil
	}

	var selected []Rule
	for _, id := range strings.Split(selector, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		r, ok := registry[id]
		if !ok {
			return nil, fmt.Errorf("rule not found: %s", id)
		}
		selected = append(selected, r)
	}
	return selected, nil
}

// Configure applies per-rule options to the registered rules. Unknown rule IDs and
// unknown option names are rejected.
func Configure(options map[string]map[string]string) error {
	mu.RLock()
	defer mu.RUnlock()

	for id, opts := range options {
		r, ok := registry[id]
		if !ok {
			return fmt.Errorf("rule not found: %s", id)
		}
		cr, ok := r.(ConfigurableRule)
		if !ok {
			return fmt.Errorf("rule %s is not configurable", id)
		}
		allowed := make(map[string]bool)
		for _, o := range cr.Options() {
			allowed[o.Name] = true
		}
		for name := range opts {
			if !allowed[name] {
				return fmt.Errorf("rule %s has no option %q", id, name)
			}
		}
	}

	for _, r := range list() {
		cr, ok := r.(ConfigurableRule)
		if !ok {
			continue
		}
		if err := cr.Configure(options[r.ID()]); err != nil {
			return fmt.Errorf("configure rule %s: %w", r.ID(), err)
		}
	}
	return nil
}
