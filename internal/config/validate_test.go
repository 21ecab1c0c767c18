package config

import (
	"strings"
	"testing"
)

func validPipeline() Pipeline {
	return Pipeline{
		Job: "book_rollups",
		Source: Source{
			Metadata: SourceFile{Path: "data/books_metadata.csv"},
			Reviews:  SourceFile{Path: "data/books_rating.csv"},
		},
		Output: Output{Dir: "out"},
	}
}

func findIssue(issues []Issue, path string) *Issue {
	for i := range issues {
		if issues[i].Path == path {
			return &issues[i]
		}
	}
	return nil
}

func TestValidatePipelineOK(t *testing.T) {
	t.Parallel()

	if issues := ValidatePipeline(validPipeline()); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestValidatePipelineErrors(t *testing.T) {
	t.Parallel()

	type tc struct {
		name     string
		mutate   func(*Pipeline)
		path     string
		severity IssueSeverity
	}
	cases := []tc{
		{
			name:     "empty_job",
			mutate:   func(p *Pipeline) { p.Job = " " },
			path:     "job",
			severity: SeverityError,
		},
		{
			name:     "missing_metadata_path",
			mutate:   func(p *Pipeline) { p.Source.Metadata.Path = "" },
			path:     "source.metadata.path",
			severity: SeverityError,
		},
		{
			name:     "missing_reviews_path",
			mutate:   func(p *Pipeline) { p.Source.Reviews.Path = "" },
			path:     "source.reviews.path",
			severity: SeverityError,
		},
		{
			name:     "same_input_twice",
			mutate:   func(p *Pipeline) { p.Source.Reviews.Path = p.Source.Metadata.Path },
			path:     "source",
			severity: SeverityError,
		},
		{
			name:     "multi_char_delimiter",
			mutate:   func(p *Pipeline) { p.Parser.Options = Options{"comma": ",,"} },
			path:     "parser.options.comma",
			severity: SeverityError,
		},
		{
			name:     "empty_output_dir",
			mutate:   func(p *Pipeline) { p.Output.Dir = "" },
			path:     "output.dir",
			severity: SeverityError,
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			p := validPipeline()
			c.mutate(&p)
			iss := findIssue(ValidatePipeline(p), c.path)
			if iss == nil {
				t.Fatalf("expected issue at %s", c.path)
			}
			if iss.Severity != c.severity {
				t.Fatalf("severity=%s want %s", iss.Severity, c.severity)
			}
		})
	}
}

func TestValidateHeaderMapCollision(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Parser.Options = Options{
		"header_map": map[string]any{
			"Title":      "title",
			"Book Title": "title",
		},
	}
	iss := findIssue(ValidatePipeline(p), "parser.options.header_map")
	if iss == nil {
		t.Fatal("expected a header_map collision warning")
	}
	if iss.Severity != SeverityWarning {
		t.Fatalf("severity=%s want warning", iss.Severity)
	}
	if !strings.Contains(iss.Message, `"title"`) {
		t.Fatalf("message should name the collided key: %s", iss.Message)
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	i := Issue{Severity: SeverityError, Path: "output.dir", Message: "must not be empty"}
	if got := i.Error(); got != "error at output.dir: must not be empty" {
		t.Fatalf("Error()=%q", got)
	}
}
