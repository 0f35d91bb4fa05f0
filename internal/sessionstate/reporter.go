package sessionstate

import (
	"context"
	"fmt"
	"log"
	"time"

	"displayd/internal/displaydevice"
	"displayd/internal/events"
	"displayd/internal/health"
)

// Reporter is a supervisor.Component that, on Start, inspects persistence
// through the settings manager to seed the registry's initial state, then
// keeps the health tracker in sync with the states recorded afterward by
// ReportApplied, ReportReverted and ReportPersistenceReset. ReportReverting
// leaves the health tracker unchanged.
type Reporter struct {
	registry *Registry
	bus      *events.Bus
	health   *health.Tracker
	manager  *displaydevice.SettingsManager
}

// NewReporter wires a session-state reporter.
func NewReporter(registry *Registry, bus *events.Bus, tracker *health.Tracker, manager *displaydevice.SettingsManager) *Reporter {
	return &Reporter{registry: registry, bus: bus, health: tracker, manager: manager}
}

// Name identifies the component to the supervisor.
func (r *Reporter) Name() string { return "sessionstate-reporter" }

// Start seeds the registry from whatever persistence currently holds.
func (r *Reporter) Start(ctx context.Context) error {
	pending, err := r.manager.HasPendingRevert()
	if err != nil {
		log.Printf("WARN: sessionstate: could not read persisted state at startup: %v", err)
		r.health.Setf("sessionstate", health.LevelWarn, fmt.Sprintf("persisted state unreadable: %v", err))
		return nil
	}
	state := events.SessionIdle
	if pending {
		state = events.SessionApplied
	}
	r.registry.Set(state)
	r.health.Setf("sessionstate", health.LevelOK, fmt.Sprintf("state=%s", state))
	log.Printf("INFO: sessionstate: starting state=%s", state)
	return nil
}

// Stop is a no-op; the registry's final state is whatever the last
// ReportX call left it at, and persistence is the durable record.
func (r *Reporter) Stop(ctx context.Context) error {
	return nil
}

// ReportApplied records a successful applySettings.
func (r *Reporter) ReportApplied(req displaydevice.SingleDisplayConfiguration) {
	r.registry.Set(events.SessionApplied)
	r.health.Setf("sessionstate", health.LevelOK, fmt.Sprintf("state=%s", events.SessionApplied))
	r.bus.Publish(events.Event{Topic: events.TopicSettingsApplied, Payload: events.SettingsApplied{Request: req, Time: time.Now()}})
	r.bus.Publish(events.Event{Topic: events.TopicSessionStateChange, Payload: events.SessionStateChange{State: events.SessionApplied, Time: time.Now()}})
}

// ReportReverting marks the transient in-process revert phase. There is no
// externally observable "reverting" persisted state (spec §4.3.3); this
// only affects in-memory reporting while the call is in flight.
func (r *Reporter) ReportReverting() {
	r.registry.Set(events.SessionReverting)
	r.bus.Publish(events.Event{Topic: events.TopicSessionStateChange, Payload: events.SessionStateChange{State: events.SessionReverting, Time: time.Now()}})
}

// ReportReverted records the outcome of a revertSettings call.
func (r *Reporter) ReportReverted(success bool) {
	state := events.SessionApplied
	level := health.LevelWarn
	if success {
		state = events.SessionIdle
		level = health.LevelOK
	}
	r.registry.Set(state)
	r.health.Setf("sessionstate", level, fmt.Sprintf("state=%s", state))
	r.bus.Publish(events.Event{Topic: events.TopicSettingsReverted, Payload: events.SettingsReverted{Success: success, Time: time.Now()}})
	if !success {
		r.bus.Publish(events.Event{Topic: events.TopicSettingsRevertFail, Payload: events.SettingsReverted{Success: false, Time: time.Now()}})
	}
	r.bus.Publish(events.Event{Topic: events.TopicSessionStateChange, Payload: events.SessionStateChange{State: state, Time: time.Now()}})
}

// ReportPersistenceReset records an administrative resetPersistence call.
func (r *Reporter) ReportPersistenceReset() {
	r.registry.Set(events.SessionIdle)
	r.health.Setf("sessionstate", health.LevelOK, fmt.Sprintf("state=%s", events.SessionIdle))
	r.bus.Publish(events.Event{Topic: events.TopicPersistenceReset, Payload: events.PersistenceReset{Time: time.Now()}})
	r.bus.Publish(events.Event{Topic: events.TopicAudit, Payload: events.AuditEvent{Kind: "reset_persistence", Time: time.Now(), Source: "admin"}})
}
