// Package event defines the lifecycle events of a test session and a
// synchronous bus that delivers them from the host to plugins.
//
// # Event Kinds
//
//   - [SessionStartEvent]: the run begins; carries the host version
//   - [TestReportEvent]: one test phase finished; carries the host's serialized report
//   - [CollectReportEvent]: one collection node finished
//   - [WarningMessageEvent]: a warning was recorded
//   - [SessionFinishEvent]: the run ended; carries the exit status
//
// Every event renders itself with Record(), tagged with its kind under the
// reserved "$report_type" key.
//
// # Bus
//
// [Bus] plays the role of the host's hook manager. Handlers return errors
// and Publish joins them, so a plugin that fails to write its log makes
// the publishing host fail instead of being silently skipped:
//
//	bus := event.NewBus()
//	bus.Subscribe(event.TypeTestReport, func(e event.Event) error {
//	    return session.Write(e)
//	})
//	if err := bus.Publish(event.NewTestReportEvent(data)); err != nil {
//	    return err
//	}
package event
