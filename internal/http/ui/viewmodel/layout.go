package viewmodel

// User represents the authenticated user context exposed to templates.
type User struct {
	Username string
	Role     string
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	HTMXScriptURL   string
	IsAuthenticated bool
	User            *User
	LogoutURL       string
	CSRFToken       string
}

// LayoutProvider exposes layout metadata for renderer utilities.
type LayoutProvider interface {
	LayoutData() *Layout
}

// LayoutData implements LayoutProvider.
func (l *Layout) LayoutData() *Layout { return l }
