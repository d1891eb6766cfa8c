package loader

import (
	"strings"

	"github.com/nimafallahian/go-rdfload/internal/domain"
)

// Rule maps a loader error message fragment onto a status code detail.
type Rule struct {
	Substring string
	Detail    domain.StatusCodeDetail
}

// DefaultRules are the loader rejections known to clear up on their own.
var DefaultRules = []Rule{
	{Substring: "Max load task queue size limit breached", Detail: domain.DetailMaxLoadTaskQueueSizeLimitBreached},
	{Substring: "Max concurrent load limit breached", Detail: domain.DetailMaxConcurrentLoadLimitBreached},
}

// Classifier maps the message of a loader BadRequestException to a detail.
type Classifier interface {
	Classify(message string) domain.StatusCodeDetail
}

// RuleClassifier checks its rules in order; the first whose substring
// occurs in the message wins. Matching is case-sensitive.
type RuleClassifier struct {
	rules []Rule
}

// NewClassifier returns a RuleClassifier with DefaultRules followed by rules.
func NewClassifier(rules ...Rule) *RuleClassifier {
	all := make([]Rule, 0, len(DefaultRules)+len(rules))
	all = append(all, DefaultRules...)
	all = append(all, rules...)
	return &RuleClassifier{rules: all}
}

// Classify implements Classifier.
func (c *RuleClassifier) Classify(message string) domain.StatusCodeDetail {
	for _, r := range c.rules {
		if strings.Contains(message, r.Substring) {
			return r.Detail
		}
	}
	return domain.DetailUnknown
}
