package posting

import (
	"strings"

	"github.com/umputun/jobimport/pkg/domain"
)

// Validation is the outcome of a posting validation, Errors lists every violated rule
type Validation struct {
	Valid  bool
	Errors []string
}

// Reason joins the violated rules into a single string
func (v Validation) Reason() string {
	return strings.Join(v.Errors, ", ")
}

// Validate checks the required fields of a posting
func Validate(p domain.JobPosting) Validation {
	var errs []string
	if strings.TrimSpace(p.JobID) == "" {
		errs = append(errs, "jobId is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(p.URL) == "" {
		errs = append(errs, "url is required")
	}
	if strings.TrimSpace(p.Source) == "" {
		errs = append(errs, "source is required")
	}
	return Validation{Valid: len(errs) == 0, Errors: errs}
}
