package wizard

// Page is one step of the setup sequence. The wizard only calls these methods
// and never inspects page-specific state.
type Page interface {
	Title() string
	Description() string
	// IsCompleted reports page-local completion. The wizard additionally
	// treats every page below the furthest visited one as completed.
	IsCompleted() bool
	// CanProceed gates forward navigation away from this page.
	CanProceed() bool
	// View renders the page body within width columns.
	View(width int) string
	// OnEnter runs after the cursor has moved to this page. A returned error
	// degrades the page to a "no data available" display; it never blocks
	// navigation.
	OnEnter(w *Wizard) error
	// OnExit runs before the cursor leaves this page.
	OnExit(w *Wizard)
}

// Store persists the two wizard fields. Save is called after every
// state-affecting transition.
type Store interface {
	WizardCompleted() bool
	SetWizardCompleted(bool)
	WizardPage() int
	SetWizardPage(int)
	Save() error
}
