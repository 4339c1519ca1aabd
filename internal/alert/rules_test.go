package alert

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/pidash/internal/model"
)

func TestBatteryLow(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"Low", true},
		{"OK", false},
		{"low", false},
		{"Undervolted: 1 | Throttled: 0", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BatteryLow(model.TextField(tc.value)), tc.value)
	}
}

func TestHumidityAbove(t *testing.T) {
	pred := HumidityAbove(HumidityLimit)
	cases := []struct {
		field model.Field
		want  bool
	}{
		{model.NumberField(0), false},
		{model.NumberField(39.9), false},
		{model.NumberField(40), false}, // boundary: strictly greater
		{model.NumberField(40.1), true},
		{model.NumberField(55), true},
		{model.TextField("55"), true}, // numeric text compares as a number
		{model.TextField("humid"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, pred(tc.field), tc.field.Text)
	}
}

func TestTempFirstDigitAtLeast(t *testing.T) {
	pred := TempFirstDigitAtLeast(8)
	cases := []struct {
		value string
		want  bool
	}{
		{"75F", false},
		{"79.9°C", false},
		{"80.1°C", true},
		{"85C", true},
		{"9.5", true},
		{"100°C", false}, // only the first character counts
		{"-5", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, pred(model.Field{Text: tc.value, Known: true}), tc.value)
	}

	assert.True(t, pred(model.TextField("85")), "numeric text still reads its first character")
	assert.False(t, pred(model.NumberField(85)), "JSON number is never flagged")
}

func TestCharAtAny_DiskUsage(t *testing.T) {
	pred := CharAtAny('1', 6, 15)
	cases := []struct {
		value string
		want  bool
	}{
		{"0000001000000010", true},
		{"0000001000000000", true},
		{"0000000000000001", true},
		{"0000000000000000", false},
		{"12%", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, pred(model.TextField(tc.value)), tc.value)
	}
}

func TestEvaluate_Scenario(t *testing.T) {
	var snap model.StatusSnapshot
	require.NoError(t, json.Unmarshal([]byte(`{
		"cpu_temp": "75F",
		"battery_low": "OK",
		"humidity": 55,
		"disk_space_used": "0000001000000010"
	}`), &snap))

	flags := DefaultRules().Evaluate(snap)
	assert.False(t, flags.Flagged(model.FieldCPUTemp))
	assert.False(t, flags.Flagged(model.FieldBatteryLow))
	assert.True(t, flags.Flagged(model.FieldHumidity))
	assert.True(t, flags.Flagged(model.FieldDiskSpaceUsed))
}

func TestEvaluate_UnknownNeverFlagged(t *testing.T) {
	rules := RuleSet{
		model.FieldUptime: func(model.Field) bool { return true },
	}
	flags := rules.Evaluate(model.UnknownSnapshot(time.Time{}))
	assert.Empty(t, flags)
}

func TestEvaluate_CustomRule(t *testing.T) {
	rules := DefaultRules()
	rules[model.FieldRecordStatus] = func(v model.Field) bool { return v.Text == "false" }

	snap := model.StatusSnapshot{RecordStatus: model.TextField("false"), Source: model.SourcePull}
	assert.True(t, rules.Evaluate(snap).Flagged(model.FieldRecordStatus))
}
