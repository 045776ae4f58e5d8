package filter

import (
	"strings"

	"outreach-engine/internal/config"
)

// Classifier decides whether a job title is an engineering-leadership role.
type Classifier struct {
	Keywords   []string // lower-case substrings
	VPCatchAll bool     // any title containing "vp" matches
}

// DefaultClassifier uses the built-in keyword list with the "vp" catch-all on.
func DefaultClassifier() Classifier {
	return Classifier{Keywords: config.DefaultTitleKeywords, VPCatchAll: true}
}

func FromConfig(cfg config.Config) Classifier {
	return Classifier{Keywords: cfg.Filters.TitleKeywords, VPCatchAll: cfg.Filters.VPCatchAll}
}

func (c Classifier) IsTarget(title string) bool {
	if title == "" {
		return false
	}
	t := strings.ToLower(title)

	for _, k := range c.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if strings.Contains(t, k) {
			return true
		}
	}

	// Matches "VP of Marketing" too; kept as-is.
	return c.VPCatchAll && strings.Contains(t, "vp")
}

// IsTargetTitle classifies with DefaultClassifier.
func IsTargetTitle(title string) bool {
	return DefaultClassifier().IsTarget(title)
}
