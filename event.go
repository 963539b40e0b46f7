package malasim

// Event is the base scheduled unit (spec.md §3): an absolute
// simulation day, an executable flag (flipped off by cancellation
// rather than removed from the queue), and a dispatcher-specific
// Execute. Two families exist: PersonEvent executes against the
// person that owns its queue, WorldEvent executes against the model
// as a whole.
type Event interface {
	Time() int
	Executable() bool
	Cancel()
	Name() string
}

// PersonEvent is an Event whose Execute receives the owning person and
// the model, and is automatically cancelled when that person dies.
type PersonEvent interface {
	Event
	Execute(m *Model, p *Person)
}

// WorldEvent is an Event whose Execute receives only the model.
type WorldEvent interface {
	Event
	Execute(m *Model)
}

// BaseEvent provides the common Time/Executable/Cancel bookkeeping
// every concrete event embeds, mirroring the teacher's small embedded
// base-struct idiom (SequenceHost embedding Spreader/Replicator/etc.)
// applied here to events instead of hosts.
type BaseEvent struct {
	time       int
	executable bool
}

// NewBaseEvent creates a base scheduled for day `time`, executable by
// default.
func NewBaseEvent(time int) BaseEvent {
	return BaseEvent{time: time, executable: true}
}

func (b *BaseEvent) Time() int          { return b.time }
func (b *BaseEvent) Executable() bool   { return b.executable }
func (b *BaseEvent) Cancel()            { b.executable = false }
