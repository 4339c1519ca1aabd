package model

import "time"

// Field names as they appear in the device's status payload.
const (
	FieldCPUTemp       = "cpu_temp"
	FieldBatteryLow    = "battery_low"
	FieldUptime        = "uptime"
	FieldDiskSpace     = "disk_space"
	FieldDiskSpaceUsed = "disk_space_used"
	FieldRecordStatus  = "record_status"
	FieldHumidity      = "humidity"
)

// Source records which channel produced a snapshot.
type Source int

const (
	SourceNone Source = iota // synthesised after a failed pull
	SourcePush
	SourcePull
)

func (s Source) String() string {
	switch s {
	case SourcePush:
		return "push"
	case SourcePull:
		return "pull"
	default:
		return "none"
	}
}

// StatusSnapshot is one complete status report from the device. A new
// snapshot replaces the previous one wholesale; fields are never merged.
type StatusSnapshot struct {
	CPUTemp       Field `json:"cpu_temp"`
	BatteryLow    Field `json:"battery_low"`
	Uptime        Field `json:"uptime"`
	DiskSpace     Field `json:"disk_space"`
	DiskSpaceUsed Field `json:"disk_space_used"`
	RecordStatus  Field `json:"record_status"`
	Humidity      Field `json:"humidity"`

	Source    Source    `json:"-"`
	FetchedAt time.Time `json:"-"`
}

// NamedField pairs a payload field name with a display label and its value.
type NamedField struct {
	Name  string
	Label string
	Value Field
}

// UnknownSnapshot returns the snapshot shown when the device could not be reached:
// every field is Unknown.
func UnknownSnapshot(at time.Time) StatusSnapshot {
	return StatusSnapshot{Source: SourceNone, FetchedAt: at}
}

// DeviceActive reports whether the snapshot came from the device.
func (s StatusSnapshot) DeviceActive() bool {
	return s.Source != SourceNone
}

// Fields returns the seven display fields in dashboard order.
func (s StatusSnapshot) Fields() []NamedField {
	return []NamedField{
		{Name: FieldCPUTemp, Label: "CPU Temp", Value: s.CPUTemp},
		{Name: FieldBatteryLow, Label: "Power", Value: s.BatteryLow},
		{Name: FieldUptime, Label: "Uptime", Value: s.Uptime},
		{Name: FieldDiskSpace, Label: "Disk Free", Value: s.DiskSpace},
		{Name: FieldDiskSpaceUsed, Label: "Disk Used", Value: s.DiskSpaceUsed},
		{Name: FieldRecordStatus, Label: "Recording", Value: s.RecordStatus},
		{Name: FieldHumidity, Label: "Humidity", Value: s.Humidity},
	}
}

// Field returns the value of the named field and whether the name is valid.
func (s StatusSnapshot) Field(name string) (Field, bool) {
	for _, f := range s.Fields() {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Field{}, false
}
