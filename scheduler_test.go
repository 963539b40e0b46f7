package malasim

import (
	"testing"
	"time"
)

func TestScheduleWorldRejectsOutOfRangeTime(t *testing.T) {
	s := NewScheduler(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 100)

	err := s.ScheduleWorld(NewTurnOnMutationEvent(200))
	if err == nil {
		t.Fatalf("expected ScheduleError for time beyond EndTime, got nil")
	}
	scheduleErr, ok := err.(*ScheduleError)
	if !ok {
		t.Fatalf("expected *ScheduleError, got %T", err)
	}
	if scheduleErr.Time != 200 || scheduleErr.Now != 0 || scheduleErr.EndTime != 100 {
		t.Errorf("ScheduleError = %+v, want Time=200 Now=0 EndTime=100", scheduleErr)
	}
}

func TestScheduleWorldAcceptsInRangeTime(t *testing.T) {
	s := NewScheduler(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 100)
	if err := s.ScheduleWorld(NewTurnOnMutationEvent(50)); err != nil {
		t.Errorf("unexpected error scheduling in-range event: %s", err)
	}
}

func TestSchedulerStepDrainsDueWorldEvents(t *testing.T) {
	s := NewScheduler(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 100)
	m := &Model{Scheduler: s}

	ev := NewTurnOnMutationEvent(1)
	if err := s.ScheduleWorld(ev); err != nil {
		t.Fatalf("unexpected schedule error: %s", err)
	}

	s.Step(m)

	if !m.MutationEnabled {
		t.Errorf("expected due world event to execute during Step, but MutationEnabled is still false")
	}
	if s.world.Len() != 0 {
		t.Errorf("expected world queue drained of the executed event, got %d remaining", s.world.Len())
	}
}
