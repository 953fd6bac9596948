package classify

import (
	"path/filepath"
	"strings"
)

// Result is the pair of folder labels a filename resolves to.
type Result struct {
	Category string `json:"category"`
	Type     string `json:"type"`
}

// Classifier resolves filenames against a RuleSet.
type Classifier struct {
	rules *RuleSet
}

// New returns a Classifier over rules. A nil rules value uses DefaultRuleSet.
func New(rules *RuleSet) *Classifier {
	if rules == nil {
		rules = DefaultRuleSet()
	}
	return &Classifier{rules: rules}
}

// Rules exposes the rule set backing the classifier.
func (c *Classifier) Rules() *RuleSet {
	return c.rules
}

// Classify returns the category and type folder for filename. It never fails;
// unknown keywords and extensions resolve to the fallback labels.
func (c *Classifier) Classify(filename string) (category, fileType string) {
	return c.categoryFor(filename), c.typeFor(filename)
}

// ClassifyResult is Classify packaged as a Result.
func (c *Classifier) ClassifyResult(filename string) Result {
	category, fileType := c.Classify(filename)
	return Result{Category: category, Type: fileType}
}

func (c *Classifier) typeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return c.rules.UnclassifiedType()
	}
	if label, ok := c.rules.extensions[ext]; ok {
		return label
	}
	return c.rules.UnclassifiedType()
}

func (c *Classifier) categoryFor(filename string) string {
	name := strings.ToLower(filename)
	if name != "" {
		for _, rule := range c.rules.categories {
			if strings.Contains(name, rule.Keyword) {
				return rule.Category
			}
		}
	}
	return c.rules.DefaultCategory()
}
