package wizard

import "github.com/medexa/medexa-platform/internal/appointments"

// Step is a wizard state. Each kind walks its own subset in a fixed order.
type Step string

const (
	StepService   Step = "service"
	StepSpecialty Step = "specialty"
	StepSchedule  Step = "schedule"
	StepPatient   Step = "patient"
	StepConfirm   Step = "confirm"
	StepSubmitted Step = "submitted"
)

type event int

const (
	eventAdvance event = iota
	eventRetreat
	eventSubmitted
	eventReset
)

type edge struct {
	from Step
	on   event
}

type flow struct {
	steps       []Step
	transitions map[edge]Step
}

func newFlow(steps ...Step) flow {
	f := flow{steps: steps, transitions: make(map[edge]Step)}
	first := steps[0]
	// Forward edges stop at confirm; only a submission leaves it.
	for i := 0; i < len(steps)-2; i++ {
		f.transitions[edge{steps[i], eventAdvance}] = steps[i+1]
	}
	for i := 1; i < len(steps)-1; i++ {
		f.transitions[edge{steps[i], eventRetreat}] = steps[i-1]
	}
	f.transitions[edge{StepConfirm, eventSubmitted}] = StepSubmitted
	f.transitions[edge{StepSubmitted, eventReset}] = first
	return f
}

var flows = map[appointments.Kind]flow{
	appointments.KindHomeVisit:    newFlow(StepService, StepPatient, StepConfirm, StepSubmitted),
	appointments.KindTelemedicine: newFlow(StepSpecialty, StepSchedule, StepPatient, StepConfirm, StepSubmitted),
}

func (f flow) next(from Step, on event) (Step, bool) {
	to, ok := f.transitions[edge{from, on}]
	return to, ok
}

// number is the 1-based position of s, or 0 when s is not in the flow.
func (f flow) number(s Step) int {
	for i, step := range f.steps {
		if step == s {
			return i + 1
		}
	}
	return 0
}
