package events

import "github.com/atomicstack/assetdesk/internal/logging"

type WizardTracer struct{}

var Wizard = WizardTracer{}

func (WizardTracer) Load(cursor, stored int, completed bool) {
	logging.Trace("wizard.load", map[string]interface{}{"cursor": cursor, "stored": stored, "completed": completed})
}

func (WizardTracer) Navigate(from, to int) {
	logging.Trace("wizard.navigate", map[string]interface{}{"from": from, "to": to})
}

func (WizardTracer) Reject(from, to int) {
	logging.Trace("wizard.reject", map[string]interface{}{"from": from, "to": to})
}

func (WizardTracer) Finish(cursor int) {
	logging.Trace("wizard.finish", map[string]interface{}{"cursor": cursor})
}

func (WizardTracer) Reset() {
	logging.Trace("wizard.reset", nil)
}

func (WizardTracer) PageError(index int, title string, err error) {
	logging.Warn("wizard", "page work failed", map[string]interface{}{"page": index, "title": title, "error": err.Error()})
}

func (WizardTracer) SaveError(err error) {
	logging.Warn("wizard", "saving wizard state failed", map[string]interface{}{"error": err.Error()})
}
