package malasim

import (
	"container/heap"
	"time"
)

// worldQueue is a min-heap of WorldEvent ordered by Time, grounded on
// the SignalQueue container/heap pattern used for per-entity delivery
// queues in the neuron-simulation example pack.
type worldQueue []WorldEvent

func (q worldQueue) Len() int            { return len(q) }
func (q worldQueue) Less(i, j int) bool  { return q[i].Time() < q[j].Time() }
func (q worldQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *worldQueue) Push(x interface{}) { *q = append(*q, x.(WorldEvent)) }
func (q *worldQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// personQueue is a min-heap of PersonEvent ordered by Time, one
// instance owned by every Person (spec.md §4.2's "each person
// maintains its own queue").
type personQueue []PersonEvent

func (q personQueue) Len() int            { return len(q) }
func (q personQueue) Less(i, j int) bool  { return q[i].Time() < q[j].Time() }
func (q personQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *personQueue) Push(x interface{}) { *q = append(*q, x.(PersonEvent)) }
func (q *personQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Scheduler owns the current simulation day, the calendar date it
// corresponds to, the configured end date, and the global world event
// queue (spec.md §3/§4.1). Each Person owns its own local queue,
// drained by Step alongside the world queue.
type Scheduler struct {
	CurrentTime  int
	CalendarDate time.Time
	EndTime      int

	world worldQueue
}

// NewScheduler creates a scheduler starting at day 0 on startDate,
// running for totalDays inclusive.
func NewScheduler(startDate time.Time, totalDays int) *Scheduler {
	s := &Scheduler{CalendarDate: startDate, EndTime: totalDays}
	heap.Init(&s.world)
	return s
}

// ScheduleWorld inserts a world event, rejecting times outside
// [CurrentTime, EndTime] with a ScheduleError (spec.md §4.1's
// "ScheduleOutOfRange" condition).
func (s *Scheduler) ScheduleWorld(e WorldEvent) error {
	if e.Time() < s.CurrentTime || e.Time() > s.EndTime {
		return NewScheduleError(e.Time(), s.CurrentTime, s.EndTime)
	}
	heap.Push(&s.world, e)
	return nil
}

// SchedulePerson inserts a person-local event, subject to the same
// time-range validation as world events.
func (s *Scheduler) SchedulePerson(p *Person, e PersonEvent) error {
	if e.Time() < s.CurrentTime || e.Time() > s.EndTime {
		return NewScheduleError(e.Time(), s.CurrentTime, s.EndTime)
	}
	heap.Push(&p.queue, e)
	return nil
}

// Step advances the current simulation day by one, then drains:
//  1. every world-queue event with Time() <= CurrentTime, in
//     heap-popped (non-decreasing time) order;
//  2. for each living person, the daily within-host update (immune
//     system, parasite densities, drug decay, per spec.md §4), then
//     every local-queue event with Time() <= CurrentTime, in the same
//     order.
//
// Non-executable events are popped and discarded without Execute.
// Events scheduled mid-drain for a time already passed are still
// picked up because the same heap is being drained (spec.md §4.1's
// "implementations should push into the same queue being drained
// safely" guarantee).
func (s *Scheduler) Step(m *Model) {
	s.CurrentTime++
	s.CalendarDate = AddDays(s.CalendarDate, 1)

	for s.world.Len() > 0 && s.world[0].Time() <= s.CurrentTime {
		e := heap.Pop(&s.world).(WorldEvent)
		if !e.Executable() {
			continue
		}
		e.Execute(m)
	}

	for _, p := range m.LivingPeople() {
		p.UpdateImmuneAndParasites(s.CurrentTime, m.DrugTypes, m.GenotypeDB)
		p.ReconcileStateAfterParasiteClearance()

		for p.queue.Len() > 0 && p.queue[0].Time() <= s.CurrentTime {
			e := heap.Pop(&p.queue).(PersonEvent)
			if !e.Executable() {
				continue
			}
			e.Execute(m, p)
		}
	}
}

// IsFinished reports whether the configured end time has been reached.
func (s *Scheduler) IsFinished() bool {
	return s.CurrentTime >= s.EndTime
}
