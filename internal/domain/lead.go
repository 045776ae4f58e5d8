package domain

type Lead struct {
	Name        string   `json:"name"`
	Company     string   `json:"company"`
	Title       string   `json:"title"`
	LinkedInURL string   `json:"linkedin_url"`
	Companies   []string `json:"companies"`
	GitHub      string   `json:"github,omitempty"`
	Email       string   `json:"email,omitempty"`
	Message     string   `json:"message,omitempty"`
	RowIndex    int      `json:"row_index"`
	Source      string   `json:"source,omitempty"` // csv/imap
}

// SheetRow is the fixed six-column layout appended to the sink.
func (l Lead) SheetRow(emailPlaceholder string) []string {
	email := l.Email
	if email == "" {
		email = emailPlaceholder
	}
	return []string{
		l.Name,
		l.LinkedInURL,
		l.Title,
		l.Company,
		l.Message,
		email,
	}
}
