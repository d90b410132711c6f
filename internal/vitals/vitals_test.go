package vitals

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() map[string]string {
	return SampleInputs().Raw()
}

func TestAnnotateGlucoseBands(t *testing.T) {
	cases := []struct {
		raw      string
		status   string
		severity Severity
	}{
		{"69", StatusLow, SeverityWarn},
		{"70", StatusNormal, SeverityOK},
		{"100", StatusNormal, SeverityOK},
		{"101", StatusElevated, SeverityWarn},
		{"140", StatusElevated, SeverityWarn},
		{"141", StatusHigh, SeverityError},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			ann := Annotate(Glucose, tc.raw)
			assert.Equal(t, tc.status, ann.Status)
			assert.Equal(t, tc.severity, ann.Severity)
			assert.Equal(t, tc.severity.Color(), ann.Color)
		})
	}
}

func TestAnnotateBMIAndBloodPressure(t *testing.T) {
	assert.Equal(t, StatusUnderweight, Annotate(BMI, "18.4").Status)
	assert.Equal(t, StatusNormal, Annotate(BMI, "18.5").Status)
	assert.Equal(t, StatusNormal, Annotate(BMI, "24.9").Status)
	assert.Equal(t, StatusOverweight, Annotate(BMI, "25").Status)
	assert.Equal(t, StatusOverweight, Annotate(BMI, "29.9").Status)
	assert.Equal(t, StatusObese, Annotate(BMI, "30").Status)

	assert.Equal(t, StatusNormal, Annotate(BloodPressure, "80").Status)
	assert.Equal(t, StatusElevated, Annotate(BloodPressure, "85").Status)
	assert.Equal(t, StatusHigh, Annotate(BloodPressure, "91").Status)
}

func TestAnnotateAgeNeverBlocks(t *testing.T) {
	assert.Equal(t, StatusLowRisk, Annotate(Age, "29").Status)
	assert.Equal(t, StatusModerateRisk, Annotate(Age, "30").Status)
	assert.Equal(t, StatusModerateRisk, Annotate(Age, "44.9").Status)

	old := Annotate(Age, "45")
	assert.Equal(t, StatusHighRisk, old.Status)
	assert.Equal(t, SeverityError, old.Severity)
	assert.False(t, old.Blocking())
}

func TestAnnotateOutOfRange(t *testing.T) {
	for _, f := range Fields() {
		below := Annotate(f.Name, FormatNumber(f.Range.Min-1))
		above := Annotate(f.Name, FormatNumber(f.Range.Max+1))
		want := "Value must be between " + FormatNumber(f.Range.Min) + " and " + FormatNumber(f.Range.Max)
		for _, ann := range []Annotation{below, above} {
			assert.Equal(t, StatusInvalid, ann.Status, f.Name)
			assert.Equal(t, SeverityError, ann.Severity, f.Name)
			assert.Equal(t, want, ann.Message, f.Name)
			assert.True(t, ann.Blocking())
		}
	}
}

func TestAnnotateInRangeIsNeverInvalid(t *testing.T) {
	for _, f := range Fields() {
		span := f.Range.Max - f.Range.Min
		for i := 0; i <= 20; i++ {
			v := f.Range.Min + span*float64(i)/20
			ann := Annotate(f.Name, FormatNumber(v))
			assert.NotEqual(t, StatusInvalid, ann.Status, "%s=%v", f.Name, v)
			assert.True(t, ann.Entered())
		}
	}
}

func TestAnnotateNotEntered(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "NaN"} {
		ann := Annotate(Glucose, raw)
		assert.False(t, ann.Entered(), raw)
		assert.Empty(t, ann.Message)
		assert.Equal(t, SeverityNone, ann.Severity)
	}
}

func TestAnnotateUnknownField(t *testing.T) {
	ann := Annotate("cholesterol", "500")
	assert.Equal(t, StatusNormal, ann.Status)
	assert.Equal(t, "Valid value", ann.Message)
	assert.Equal(t, SeverityOK, ann.Severity)

	assert.False(t, Annotate("cholesterol", "").Entered())
}

func TestAnnotateOtherFieldsValidValue(t *testing.T) {
	ann := Annotate(Insulin, "100")
	assert.Equal(t, StatusNormal, ann.Status)
	assert.Equal(t, "Valid value", ann.Message)
}

func TestValidateAllAcceptsSample(t *testing.T) {
	in, err := ValidateAll(validRaw())
	require.NoError(t, err)
	assert.Equal(t, SampleInputs(), in)
	assert.True(t, Valid(validRaw()))
}

func TestValidateAllNamesOffendingField(t *testing.T) {
	raw := validRaw()
	raw[Age] = "150"

	_, err := ValidateAll(raw)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{Age}, verr.Fields())
	assert.Contains(t, err.Error(), "age")
	assert.Contains(t, err.Error(), "between 1 and 120")
	assert.False(t, Valid(raw))
}

func TestValidateAllReportsEveryFieldInOrder(t *testing.T) {
	raw := validRaw()
	raw[BMI] = "5"
	delete(raw, Glucose)

	_, err := ValidateAll(raw)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Issues, 2)
	assert.Equal(t, Glucose, verr.Issues[0].Field)
	assert.True(t, verr.Issues[0].Missing)
	assert.Equal(t, BMI, verr.Issues[1].Field)
	assert.False(t, verr.Issues[1].Missing)
	assert.True(t, strings.HasPrefix(err.Error(), "Please enter a valid glucose"))
}

func TestValidateAllEachFieldIndependently(t *testing.T) {
	for _, f := range Fields() {
		raw := validRaw()
		raw[f.Name] = FormatNumber(f.Range.Max + 1)
		_, err := ValidateAll(raw)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), f.Name)
		assert.Equal(t, []string{f.Name}, verr.Fields())
	}
}

func TestValidateStep(t *testing.T) {
	raw := map[string]string{Pregnancies: "1", Glucose: "90", BloodPressure: "70", SkinThickness: "20"}
	require.NoError(t, ValidateStep(1, raw))
	require.Error(t, ValidateStep(2, raw))
	require.Error(t, ValidateStep(3, raw))
}

func TestParseInputsRoundTripsForm(t *testing.T) {
	form := SampleInputs().Form()
	assert.Equal(t, "25.5", form.Get(BMI))

	in, err := ParseInputs(form)
	require.NoError(t, err)
	assert.Equal(t, 25.5, in.Get(BMI))
	assert.Equal(t, 0.5, in.Get(DPF))

	_, err = ParseInputs(url.Values{})
	require.Error(t, err)
}

func TestStepFieldsCoverAllFields(t *testing.T) {
	total := 0
	for step := 1; step <= TotalSteps; step++ {
		total += len(StepFields(step))
	}
	assert.Equal(t, len(Fields()), total)
}

func TestQuickCheck(t *testing.T) {
	res, err := QuickCheck(Glucose, 150)
	require.NoError(t, err)
	assert.Equal(t, "High - Diabetes range", res.Result)
	assert.Equal(t, "150 mg/dL", res.Display)

	res, err = QuickCheck(BMI, 22)
	require.NoError(t, err)
	assert.Equal(t, "Normal weight", res.Result)
	assert.Equal(t, "22.0", res.Display)

	_, err = QuickCheck(Glucose, 0)
	require.Error(t, err)
	_, err = QuickCheck(Age, 40)
	require.Error(t, err)
}

func TestCalculateBMI(t *testing.T) {
	res, err := CalculateBMI(180, 81)
	require.NoError(t, err)
	assert.Equal(t, 25.0, res.BMI)
	assert.Equal(t, StatusOverweight, res.Status)
	assert.True(t, res.InFormBand)

	_, err = CalculateBMI(0, 70)
	assert.ErrorIs(t, err, ErrInvalidBodyMeasure)
}
