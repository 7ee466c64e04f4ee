package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

var sourceTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// SourceType groups knowledge entries by origin (faq, policy, procedure, ...).
// It is only used for filtering and grouping.
type SourceType string

const (
	SourceTypeFAQ       SourceType = "faq"
	SourceTypePolicy    SourceType = "policy"
	SourceTypeProcedure SourceType = "procedure"
	SourceTypeAdmin     SourceType = "admin"
)

// Validate checks if the SourceType is valid
func (s SourceType) Validate() error {
	if s == "" {
		return goerr.New("source type cannot be empty")
	}
	if !sourceTypePattern.MatchString(string(s)) {
		return goerr.New("source type must be lowercase alphanumeric with hyphens or underscores", goerr.V("source_type", s))
	}
	return nil
}

func (s SourceType) String() string {
	return string(s)
}
