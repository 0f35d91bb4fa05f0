package commands

import (
	"context"

	"displayd/internal/displaydevice"
)

// ApplyCommand requests that the settings manager prepare a device for a
// session.
type ApplyCommand struct {
	Request displaydevice.SingleDisplayConfiguration
}

// Name identifies the command to the dispatcher.
func (ApplyCommand) Name() string { return "settings.apply" }

// ApplyResponse carries the settings manager's verdict back to the caller.
type ApplyResponse struct {
	Result displaydevice.Result
	Err    error
}

// RevertCommand requests that the settings manager undo the most recent
// apply.
type RevertCommand struct{}

// Name identifies the command to the dispatcher.
func (RevertCommand) Name() string { return "settings.revert" }

// RevertResponse carries the settings manager's revert outcome.
type RevertResponse struct {
	Success bool
}

// ResetCommand requests that persisted state be discarded administratively.
type ResetCommand struct{}

// Name identifies the command to the dispatcher.
func (ResetCommand) Name() string { return "settings.reset" }

// ResetResponse carries the reset outcome.
type ResetResponse struct {
	Success bool
}

// SettingsManager is the subset of displaydevice.SettingsManager the
// handlers below depend on, so tests can substitute a fake.
type SettingsManager interface {
	ApplySettings(req displaydevice.SingleDisplayConfiguration) (displaydevice.Result, error)
	RevertSettings() bool
	ResetPersistence() bool
}

// SessionReporter is the subset of sessionstate.Reporter the handlers below
// depend on.
type SessionReporter interface {
	ReportApplied(req displaydevice.SingleDisplayConfiguration)
	ReportReverting()
	ReportReverted(success bool)
	ReportPersistenceReset()
}

// NewSettingsHandlers builds the settings.* command handlers, keyed by
// command name, over a manager and a session reporter, wrapping each OS call
// with its lifecycle report. Callers register each entry with a Dispatcher.
func NewSettingsHandlers(manager SettingsManager, reporter SessionReporter) map[string]Handler {
	return map[string]Handler{
		(ApplyCommand{}).Name(): HandlerFunc(func(ctx context.Context, cmd Command) (Response, error) {
			apply := cmd.(ApplyCommand)
			result, err := manager.ApplySettings(apply.Request)
			if err == nil && result == displaydevice.ResultOK {
				reporter.ReportApplied(apply.Request)
			}
			return ApplyResponse{Result: result, Err: err}, nil
		}),
		(RevertCommand{}).Name(): HandlerFunc(func(ctx context.Context, cmd Command) (Response, error) {
			reporter.ReportReverting()
			ok := manager.RevertSettings()
			reporter.ReportReverted(ok)
			return RevertResponse{Success: ok}, nil
		}),
		(ResetCommand{}).Name(): HandlerFunc(func(ctx context.Context, cmd Command) (Response, error) {
			ok := manager.ResetPersistence()
			if ok {
				reporter.ReportPersistenceReset()
			}
			return ResetResponse{Success: ok}, nil
		}),
	}
}
