package classify

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	// DefaultCategory receives files whose names match no keyword.
	DefaultCategory = "Unsorted"
	// UnclassifiedType receives files whose extension has no mapping.
	UnclassifiedType = "Unclassified"
)

// CategoryRule binds a filename keyword to a category label.
type CategoryRule struct {
	Keyword  string
	Category string
}

// RuleSet is the immutable classification configuration. Construct it with
// NewRuleSet; the zero value classifies everything into the fallbacks.
type RuleSet struct {
	categories       []CategoryRule
	extensions       map[string]string
	defaultCategory  string
	unclassifiedType string
}

// RuleOption customizes RuleSet construction.
type RuleOption func(*RuleSet)

// WithDefaultCategory overrides the fallback category label.
func WithDefaultCategory(label string) RuleOption {
	return func(rs *RuleSet) {
		if label = strings.TrimSpace(label); label != "" {
			rs.defaultCategory = label
		}
	}
}

// WithUnclassifiedType overrides the fallback type label.
func WithUnclassifiedType(label string) RuleOption {
	return func(rs *RuleSet) {
		if label = strings.TrimSpace(label); label != "" {
			rs.unclassifiedType = label
		}
	}
}

// NewRuleSet validates and copies the supplied rules. Keywords and extensions
// are lowercased; extensions gain a leading dot when missing. Category rule
// order is preserved exactly as given.
func NewRuleSet(categories []CategoryRule, extensions map[string]string, opts ...RuleOption) (*RuleSet, error) {
	rs := &RuleSet{
		categories:       make([]CategoryRule, 0, len(categories)),
		extensions:       make(map[string]string, len(extensions)),
		defaultCategory:  DefaultCategory,
		unclassifiedType: UnclassifiedType,
	}
	for _, opt := range opts {
		opt(rs)
	}

	for i, rule := range categories {
		keyword := strings.ToLower(strings.TrimSpace(rule.Keyword))
		category := strings.TrimSpace(rule.Category)
		if keyword == "" {
			return nil, fmt.Errorf("category rule %d: keyword is empty", i)
		}
		if err := validateLabel(category); err != nil {
			return nil, fmt.Errorf("category rule %d (%q): %w", i, keyword, err)
		}
		rs.categories = append(rs.categories, CategoryRule{Keyword: keyword, Category: category})
	}

	for ext, label := range extensions {
		key := NormalizeExtension(ext)
		if key == "" || key == "." {
			return nil, fmt.Errorf("extension rule %q: extension is empty", ext)
		}
		label = strings.TrimSpace(label)
		if err := validateLabel(label); err != nil {
			return nil, fmt.Errorf("extension rule %q: %w", ext, err)
		}
		rs.extensions[key] = label
	}

	if err := validateLabel(rs.defaultCategory); err != nil {
		return nil, fmt.Errorf("default category: %w", err)
	}
	if err := validateLabel(rs.unclassifiedType); err != nil {
		return nil, fmt.Errorf("unclassified type: %w", err)
	}
	return rs, nil
}

// NormalizeExtension lowercases ext and ensures it starts with a dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Labels become directory names, so they must be a single path element.
func validateLabel(label string) error {
	switch {
	case label == "":
		return errors.New("label is empty")
	case label == "." || label == "..":
		return fmt.Errorf("label %q is not a valid folder name", label)
	case strings.ContainsAny(label, `/\`):
		return fmt.Errorf("label %q must not contain path separators", label)
	case strings.ContainsRune(label, 0):
		return fmt.Errorf("label %q contains a NUL byte", label)
	}
	return nil
}

// Categories returns a copy of the ordered category rules.
func (rs *RuleSet) Categories() []CategoryRule {
	if rs == nil {
		return nil
	}
	return slices.Clone(rs.categories)
}

// Extensions returns a copy of the extension table.
func (rs *RuleSet) Extensions() map[string]string {
	if rs == nil {
		return map[string]string{}
	}
	return maps.Clone(rs.extensions)
}

// DefaultCategory reports the fallback category label.
func (rs *RuleSet) DefaultCategory() string {
	if rs == nil || rs.defaultCategory == "" {
		return DefaultCategory
	}
	return rs.defaultCategory
}

// UnclassifiedType reports the fallback type label.
func (rs *RuleSet) UnclassifiedType() string {
	if rs == nil || rs.unclassifiedType == "" {
		return UnclassifiedType
	}
	return rs.unclassifiedType
}

// DefaultCategoryRules is the built-in course keyword table. Order matters:
// earlier keywords win when a filename contains several.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{"data structures", "Data Structures and Algorithms"},
		{"dsa", "Data Structures and Algorithms"},
		{"algorithm", "Data Structures and Algorithms"},
		{"image", "Image Processing"},
		{"computer vision", "Image Processing"},
		{"dip", "Image Processing"},
		{"ccna", "CCNA Networking"},
		{"network", "CCNA Networking"},
		{"control", "Control Engineering"},
		{"pid", "Control Engineering"},
		{"nlp", "Natural Language Processing (NLP)"},
		{"machine learning", "Machine Learning (ML)"},
		{"ml", "Machine Learning (ML)"},
		{"deep learning", "Machine Learning (ML)"},
		{"ai", "Machine Learning (ML)"},
		{"communication", "Communication and Presentation Skills"},
		{"statistics", "Statistics"},
	}
}

// DefaultExtensionRules is the built-in extension table with separate folders
// per document format.
func DefaultExtensionRules() map[string]string {
	return map[string]string{
		".mp4":  "Videos",
		".avi":  "Videos",
		".mov":  "Videos",
		".mkv":  "Videos",
		".pdf":  "Lecture Notes (PDF)",
		".docx": "Lecture Notes (DOCX)",
		".pptx": "Presentations (PPTX)",
		".py":   "Code",
		".java": "Code",
		".cpp":  "Code",
		".c":    "Code",
		".js":   "Code",
		".h":    "Code",
		".hpp":  "Code",
		".exe":  "Executables",
		".txt":  "Other",
		".zip":  "Other",
		".rar":  "Other",
	}
}

// DefaultRuleSet builds the built-in rules. It panics only if the built-in
// tables are invalid.
func DefaultRuleSet() *RuleSet {
	rs, err := NewRuleSet(DefaultCategoryRules(), DefaultExtensionRules())
	if err != nil {
		panic(fmt.Sprintf("classify: built-in rules invalid: %v", err))
	}
	return rs
}
