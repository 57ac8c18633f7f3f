package sim

// NotificationKind labels the observable simulation events.
type NotificationKind string

const (
	EntityCreated  NotificationKind = "EntityCreated"
	EntityConsumed NotificationKind = "EntityConsumed"
	CounterUpdated NotificationKind = "CounterUpdated"
)

// Notification is one observable occurrence inside a run. Entity is a
// snapshot copy; holding onto it never aliases live engine state.
type Notification struct {
	Time    Time
	Kind    NotificationKind
	Node    NodeID
	Entity  Entity
	Message string
}

// Observer receives notifications and clock updates. Callbacks run
// synchronously on the engine's event goroutine between events, so they
// must return promptly and must not call back into blocking engine
// control methods.
type Observer interface {
	OnNotification(Notification)
	OnTimeUpdated(now Time)
}

// ObserverFuncs adapts plain functions to the Observer interface. Nil
// fields are skipped.
type ObserverFuncs struct {
	Notification func(Notification)
	TimeUpdated  func(Time)
}

func (o ObserverFuncs) OnNotification(n Notification) {
	if o.Notification != nil {
		o.Notification(n)
	}
}

func (o ObserverFuncs) OnTimeUpdated(now Time) {
	if o.TimeUpdated != nil {
		o.TimeUpdated(now)
	}
}
