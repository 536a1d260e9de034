// Where: internal/project/catalog.go
// What: Compiled-in project descriptor catalog and selector resolution.
// Why: Fix the set of example projects and their template identifiers.
package project

import (
	"errors"
	"fmt"
)

// Descriptor names one example project: its working directory under the
// workspace, the starter template it is scaffolded from, and a display name.
type Descriptor struct {
	Dir      string
	Template string
	Display  string
}

// ErrInvalidSelector reports an unknown project selector.
var ErrInvalidSelector = errors.New("invalid selector")

// SelectorAll selects every project in the catalog.
const SelectorAll = "all"

// catalog is fixed; projects are not user-extensible at runtime.
var catalog = map[string]Descriptor{
	"email-proof": {Dir: "my-simple-email-proof", Template: "simple-email-proof", Display: "Email Proof"},
	"teleport":    {Dir: "my-simple-teleport", Template: "simple-teleport", Display: "Teleport"},
	"time-travel": {Dir: "my-simple-time-travel", Template: "simple-time-travel", Display: "Time Travel"},
	"web-proof":   {Dir: "my-simple-web-proof", Template: "simple-web-proof", Display: "Web Proof"},
}

// selectorOrder keeps listings and "all" runs deterministic.
var selectorOrder = []string{"email-proof", "teleport", "time-travel", "web-proof"}

// Selectors returns the valid selector values, "all" first.
func Selectors() []string {
	return append([]string{SelectorAll}, selectorOrder...)
}

// Resolve maps a selector to the project descriptors it names.
func Resolve(selector string) ([]Descriptor, error) {
	if selector == SelectorAll {
		descriptors := make([]Descriptor, 0, len(selectorOrder))
		for _, key := range selectorOrder {
			descriptors = append(descriptors, catalog[key])
		}
		return descriptors, nil
	}
	descriptor, ok := catalog[selector]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSelector, selector)
	}
	return []Descriptor{descriptor}, nil
}
