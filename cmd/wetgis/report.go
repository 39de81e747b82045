package main

import (
	"fmt"
	"io"

	"github.com/couchcryptid/wetland-gis-tools/internal/pipeline"
)

// phase tracks pass/fail for one validation check.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func phases(checks []pipeline.Check) []*phase {
	out := make([]*phase, len(checks))
	for i, c := range checks {
		out[i] = &phase{name: fmt.Sprintf("Phase %d: %s", i+1, c.Name)}
		if c.Err != nil {
			out[i].errorf("%v", c.Err)
		}
	}
	return out
}

func printValidation(w io.Writer, source string, inv *pipeline.Inventory, checks []pipeline.Check) {
	fmt.Fprintln(w, "=== Source Validation ===")
	fmt.Fprintln(w)
	if inv != nil {
		fmt.Fprintf(w, "Source: %s (%s)\n", source, inv.Kind)
		for _, l := range inv.Layers {
			fmt.Fprintf(w, "  %s\n", l.Summary())
		}
		fmt.Fprintln(w)
	}

	all := phases(checks)
	allPassed := true
	for _, p := range all {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	for _, p := range all {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed && len(all) > 0 {
		fmt.Fprintln(w, "\nAll validations passed.")
		return
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
}
