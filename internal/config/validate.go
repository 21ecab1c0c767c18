// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "source.metadata.path",
// "output.dir"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
//
// Example:
//
//	var p config.Pipeline
//	if err := json.NewDecoder(r).Decode(&p); err != nil { ... }
//	issues := config.ValidatePipeline(p)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateOutput(p.Output)...)

	return issues
}

// validateSource validates the two input file references.
func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Metadata.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.metadata.path",
			Message:  "metadata source requires a non-empty path",
		})
	}
	if strings.TrimSpace(s.Reviews.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.reviews.path",
			Message:  "reviews source requires a non-empty path",
		})
	}
	if s.Metadata.Path != "" && s.Metadata.Path == s.Reviews.Path {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source",
			Message:  "metadata and reviews must point at different files",
		})
	}

	return issues
}

// validateParser validates parser configuration.
func validateParser(p Parser) []Issue {
	var issues []Issue

	if comma := p.Options.String("comma", ","); len([]rune(comma)) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("delimiter must be a single character, got %q", comma),
		})
	}

	// header_map values that collide would silently merge two source columns
	// into one canonical name; surface that as a warning.
	seen := map[string]string{}
	for from, to := range p.Options.StringMap("header_map") {
		if prev, ok := seen[to]; ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "parser.options.header_map",
				Message:  fmt.Sprintf("both %q and %q map to %q", prev, from, to),
			})
		}
		seen[to] = from
	}

	return issues
}

// validateOutput validates the artifact destination.
func validateOutput(o Output) []Issue {
	var issues []Issue

	if strings.TrimSpace(o.Dir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.dir",
			Message:  "output.dir must not be empty",
		})
	}

	return issues
}
