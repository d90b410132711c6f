// Package vitals classifies the health parameters collected by the assessment form.
package vitals

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Field names as they appear in the form and in backend requests.
const (
	Pregnancies   = "pregnancies"
	Glucose       = "glucose"
	BloodPressure = "bloodpressure"
	SkinThickness = "skinthickness"
	Insulin       = "insulin"
	BMI           = "bmi"
	DPF           = "dpf"
	Age           = "age"
)

// Range is the inclusive domain a field value must fall in.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

type Field struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Unit  string `json:"unit,omitempty"`
	Range Range  `json:"range"`
	Step  int    `json:"step"`
}

// fields is ordered the way the prediction backend expects its features.
var fields = []Field{
	{Name: Pregnancies, Label: "Pregnancies", Range: Range{0, 20}, Step: 1},
	{Name: Glucose, Label: "Glucose", Unit: "mg/dL", Range: Range{0, 300}, Step: 1},
	{Name: BloodPressure, Label: "Blood Pressure", Unit: "mmHg", Range: Range{0, 200}, Step: 1},
	{Name: SkinThickness, Label: "Skin Thickness", Unit: "mm", Range: Range{0, 100}, Step: 1},
	{Name: Insulin, Label: "Insulin", Unit: "μU/mL", Range: Range{0, 1000}, Step: 2},
	{Name: BMI, Label: "BMI", Range: Range{10, 70}, Step: 2},
	{Name: DPF, Label: "Diabetes Pedigree Function", Range: Range{0, 5}, Step: 2},
	{Name: Age, Label: "Age", Unit: "years", Range: Range{1, 120}, Step: 2},
}

var fieldIndex = func() map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f.Name] = i
	}
	return idx
}()

// TotalSteps is the number of pages in the multi-step form.
const TotalSteps = 2

// Fields returns a copy of the field table in backend order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Lookup returns the field definition for name.
func Lookup(name string) (Field, bool) {
	i, ok := fieldIndex[normalizeName(name)]
	if !ok {
		return Field{}, false
	}
	return fields[i], true
}

// StepFields returns the field names shown on the given form step.
func StepFields(step int) []string {
	var names []string
	for _, f := range fields {
		if f.Step == step {
			names = append(names, f.Name)
		}
	}
	return names
}

// Inputs holds one complete set of parsed values, indexed in field order.
type Inputs struct {
	values [8]float64
}

func (in Inputs) Get(name string) float64 {
	i, ok := fieldIndex[normalizeName(name)]
	if !ok {
		return 0
	}
	return in.values[i]
}

// Set returns a copy of in with name updated. Unknown names are ignored.
func (in Inputs) Set(name string, v float64) Inputs {
	if i, ok := fieldIndex[normalizeName(name)]; ok {
		in.values[i] = v
	}
	return in
}

// Map returns the values keyed by field name.
func (in Inputs) Map() map[string]float64 {
	m := make(map[string]float64, len(fields))
	for i, f := range fields {
		m[f.Name] = in.values[i]
	}
	return m
}

// Form encodes the inputs the way the /predict endpoint expects them.
func (in Inputs) Form() url.Values {
	form := url.Values{}
	for i, f := range fields {
		form.Set(f.Name, FormatNumber(in.values[i]))
	}
	return form
}

// Raw renders the inputs back into raw form values.
func (in Inputs) Raw() map[string]string {
	raw := make(map[string]string, len(fields))
	for i, f := range fields {
		raw[f.Name] = FormatNumber(in.values[i])
	}
	return raw
}

func (in Inputs) MarshalJSON() ([]byte, error) {
	return json.Marshal(in.Map())
}

// UnmarshalJSON accepts numbers or numeric strings; older history entries
// stored the raw form strings.
func (in *Inputs) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Inputs
	for k, raw := range m {
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("inputs.%s: %w", k, err)
			}
			parsed, ok := parseValue(s)
			if !ok {
				return fmt.Errorf("inputs.%s: not a number: %q", k, s)
			}
			v = parsed
		}
		out = out.Set(k, v)
	}
	*in = out
	return nil
}

// InputsFromMap builds Inputs from a name->value map, ignoring unknown keys.
func InputsFromMap(m map[string]float64) Inputs {
	var in Inputs
	for k, v := range m {
		in = in.Set(k, v)
	}
	return in
}

// RawFromForm extracts the raw field values of a form submission.
func RawFromForm(form url.Values) map[string]string {
	raw := make(map[string]string, len(fields))
	for _, f := range fields {
		if form.Has(f.Name) {
			raw[f.Name] = form.Get(f.Name)
		}
	}
	return raw
}

// ParseInputs validates a form submission and returns its values.
func ParseInputs(form url.Values) (Inputs, error) {
	return ValidateAll(RawFromForm(form))
}

// SampleInputs is the demo data offered by the "fill sample" button.
func SampleInputs() Inputs {
	return InputsFromMap(map[string]float64{
		Pregnancies:   2,
		Glucose:       120,
		BloodPressure: 80,
		SkinThickness: 25,
		Insulin:       100,
		BMI:           25.5,
		DPF:           0.5,
		Age:           35,
	})
}

// FormatNumber prints v without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
