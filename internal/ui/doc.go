// Package ui contains the Bubble Tea program hosting an assetdesk session.
//
// Message flow:
//   - Bubble Tea invokes Model.Update with incoming messages, which are routed
//     through a typed handler registry so each tea.Msg is handled by a focused
//     function.
//   - TickMsg is the render tick. Each tick hands control to
//     session.Coordinator.Tick, which consumes the invalidation ledger, runs
//     immediate rebuilds, and lets the poller refresh its counters. The tick
//     re-arms itself with tea.Tick.
//   - When a pass leaves callbacks deferred on the session trampoline,
//     finishUpdate returns an idle command. Its idleMsg is handled in a later
//     Update, so deferred work never mutates state inside the pass that asked
//     for it.
//
// State ownership:
//   - The coordinator owns the ledger, poll state, task runner and wizard
//     cursor. The model only calls its operations.
//   - internal/index holds the derived views the dashboard renders; those are
//     only rewritten by rebuild callbacks.
//
// Background work:
//   - Task workers never touch the model. Their completions are read from the
//     session's results channel by waitForTask and applied with Deliver on the
//     Update goroutine, which is also where success sinks mark the ledger.
//   - A backend.Watcher streams file events; each one is passed to
//     Coordinator.HandleEvent and turned into ledger marks by the dispatcher.
package ui
