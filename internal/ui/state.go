// Package ui holds the assessment screen's state as a plain value. Events are
// applied with Dispatch and the result is rendered into view models.
package ui

import (
	"maps"

	"github.com/Skufu/glucocheck/internal/vitals"
)

type Section string

const (
	SectionHome     Section = "home"
	SectionResults  Section = "results"
	SectionHistory  Section = "history"
	SectionInsights Section = "insights"
	SectionTips     Section = "tips"
)

var sections = []Section{SectionHome, SectionResults, SectionHistory, SectionInsights, SectionTips}

func (s Section) Valid() bool {
	for _, known := range sections {
		if s == known {
			return true
		}
	}
	return false
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme maps anything other than "dark" to the light theme.
func ParseTheme(v string) Theme {
	if Theme(v) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// State is everything the assessment screen shows. The zero value is not
// ready for use; start from NewState.
type State struct {
	Step        int                          `json:"step"`
	Section     Section                      `json:"section"`
	Theme       Theme                        `json:"theme"`
	Form        map[string]string            `json:"form"`
	Annotations map[string]vitals.Annotation `json:"annotations"`
	Result      *ResultView                  `json:"result,omitempty"`
	Error       string                       `json:"error,omitempty"`
	Notice      string                       `json:"notice,omitempty"`
}

func NewState(theme Theme) State {
	return State{
		Step:        1,
		Section:     SectionHome,
		Theme:       theme,
		Form:        map[string]string{},
		Annotations: map[string]vitals.Annotation{},
	}
}

// clone copies the maps so a dispatched state never aliases its input.
func (s State) clone() State {
	out := s
	out.Form = maps.Clone(s.Form)
	if out.Form == nil {
		out.Form = map[string]string{}
	}
	out.Annotations = maps.Clone(s.Annotations)
	if out.Annotations == nil {
		out.Annotations = map[string]vitals.Annotation{}
	}
	if s.Result != nil {
		r := *s.Result
		out.Result = &r
	}
	return out
}
