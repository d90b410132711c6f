package ui

import (
	"fmt"

	"github.com/Skufu/glucocheck/internal/assessment"
	"github.com/Skufu/glucocheck/internal/vitals"
)

type ActionType string

const (
	ActionSetField      ActionType = "set_field"
	ActionNextStep      ActionType = "next_step"
	ActionPrevStep      ActionType = "prev_step"
	ActionLoadSample    ActionType = "load_sample"
	ActionResetForm     ActionType = "reset_form"
	ActionToggleTheme   ActionType = "toggle_theme"
	ActionSwitchSection ActionType = "switch_section"
	ActionShowResult    ActionType = "show_result"
	ActionShowError     ActionType = "show_error"
	ActionUseRecord     ActionType = "use_record"
)

// Action is one user or system event. Only the fields relevant to Type are
// read.
type Action struct {
	Type    ActionType         `json:"type"`
	Field   string             `json:"field,omitempty"`
	Value   string             `json:"value,omitempty"`
	Section Section            `json:"section,omitempty"`
	Message string             `json:"message,omitempty"`
	Record  *assessment.Record `json:"record,omitempty"`
}

// UnknownActionError is returned for action types Dispatch does not handle.
type UnknownActionError struct {
	Type ActionType
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Type)
}

// Dispatch applies a to s and returns the next state; s is not modified.
// When the action is rejected (a step that fails validation, an unknown
// section) the returned state carries the message in Error and the error is
// returned alongside it.
func Dispatch(s State, a Action) (State, error) {
	next := s.clone()
	next.Notice = ""

	switch a.Type {
	case ActionSetField:
		f, ok := vitals.Lookup(a.Field)
		if !ok {
			return reject(next, fmt.Errorf("unknown field %q", a.Field))
		}
		next.Form[f.Name] = a.Value
		next.Annotations[f.Name] = vitals.Annotate(f.Name, a.Value)
		next.Error = ""

	case ActionNextStep:
		if err := vitals.ValidateStep(next.Step, next.Form); err != nil {
			return reject(next, err)
		}
		next.Error = ""
		next.Step = clampStep(next.Step + 1)

	case ActionPrevStep:
		next.Error = ""
		next.Step = clampStep(next.Step - 1)

	case ActionLoadSample:
		next = fill(next, vitals.SampleInputs())
		next.Notice = "Sample data loaded!"

	case ActionResetForm:
		next.Form = map[string]string{}
		next.Annotations = map[string]vitals.Annotation{}
		next.Result = nil
		next.Error = ""
		next.Step = 1

	case ActionToggleTheme:
		next.Theme = next.Theme.Toggle()

	case ActionSwitchSection:
		if !a.Section.Valid() {
			return reject(next, fmt.Errorf("unknown section %q", a.Section))
		}
		next.Section = a.Section

	case ActionShowResult:
		if a.Record == nil {
			return reject(next, fmt.Errorf("%s requires a record", a.Type))
		}
		view := RenderRecord(*a.Record)
		next.Result = &view
		next.Error = ""
		next.Section = SectionResults

	case ActionShowError:
		next.Result = nil
		next.Error = a.Message

	case ActionUseRecord:
		if a.Record == nil {
			return reject(next, fmt.Errorf("%s requires a record", a.Type))
		}
		next = fill(next, a.Record.Inputs)
		next.Section = SectionHome
		next.Notice = "Historical data loaded into form!"

	default:
		return reject(next, &UnknownActionError{Type: a.Type})
	}
	return next, nil
}

func reject(s State, err error) (State, error) {
	s.Error = err.Error()
	return s, err
}

func fill(s State, in vitals.Inputs) State {
	s.Form = in.Raw()
	s.Annotations = make(map[string]vitals.Annotation, len(s.Form))
	for name, raw := range s.Form {
		s.Annotations[name] = vitals.Annotate(name, raw)
	}
	s.Error = ""
	s.Step = 1
	return s
}

func clampStep(step int) int {
	switch {
	case step < 1:
		return 1
	case step > vitals.TotalSteps:
		return vitals.TotalSteps
	default:
		return step
	}
}
