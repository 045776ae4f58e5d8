package filter

import "outreach-engine/internal/domain"

// Skip reasons reported by ShouldKeepLead.
const (
	ReasonNoName    = "no_name"
	ReasonNoCompany = "no_company"
	ReasonTitle     = "title"
)

// ShouldKeepLead applies the required-field checks in order, then the title classifier.
func ShouldKeepLead(c Classifier, l domain.Lead) (keep bool, reason string) {
	if l.Name == "" {
		return false, ReasonNoName
	}
	if l.Company == "" {
		return false, ReasonNoCompany
	}
	if !c.IsTarget(l.Title) {
		return false, ReasonTitle
	}
	return true, ""
}
