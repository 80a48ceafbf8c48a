package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"content-commerce/internal/domain/ports/adapter"
)

var _ adapter.TextSanitizer = (*StrictSanitizer)(nil)

// StrictSanitizer strips every tag and returns plain text.
type StrictSanitizer struct {
	policy *bluemonday.Policy
}

func NewStrictSanitizer() *StrictSanitizer {
	return &StrictSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize removes markup; entities the policy escapes are decoded again so
// the stored value is plain text.
func (s *StrictSanitizer) Sanitize(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}
