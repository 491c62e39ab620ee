// Package dashboard turns fetched patient records into the dashboard's
// display regions. Hosts supply the regions as Slots and a ChartSurface; the
// package never touches HTML or a terminal directly.
package dashboard

// Slot names one display region. The names double as element ids in the
// HTML host.
type Slot string

const (
	SlotPatientList        Slot = "patientList"
	SlotProfileImage       Slot = "profileSectionImage"
	SlotProfileName        Slot = "patientSectionName"
	SlotDateOfBirth        Slot = "patientDOB"
	SlotGender             Slot = "patientGender"
	SlotContact            Slot = "patientContact"
	SlotInsurance          Slot = "patientInsurance"
	SlotRespiratoryRate    Slot = "respiratoryRate"
	SlotRespiratoryLevel   Slot = "respiratoryLevel"
	SlotTemperature        Slot = "temperature"
	SlotTemperatureLevel   Slot = "temperatureLevel"
	SlotHeartRate          Slot = "heartRate"
	SlotHeartRateLevel     Slot = "heartRateLevel"
	SlotDiagnosticList     Slot = "diagnosticList"
	SlotLabResults         Slot = "labResultsList"
	SlotBloodPressureChart Slot = "bloodPressureChart"
)

// TextSlots lists the text regions in the order Render writes them.
var TextSlots = []Slot{
	SlotProfileName,
	SlotDateOfBirth,
	SlotGender,
	SlotContact,
	SlotInsurance,
	SlotRespiratoryRate,
	SlotRespiratoryLevel,
	SlotTemperature,
	SlotTemperatureLevel,
	SlotHeartRate,
	SlotHeartRateLevel,
}

// Slots is the write side of the display. Each call replaces the previous
// content of the slot.
type Slots interface {
	WriteText(slot Slot, text string) error
	WriteImage(slot Slot, src, alt string) error
	WriteRows(slot Slot, rows [][]string) error
	WriteList(slot Slot, items []string) error
}

// ChartSurface builds trend charts.
type ChartSurface interface {
	DrawChart(slot Slot, series []TrendPoint) (Chart, error)
}

// Chart is a drawn chart. It must be released before another chart is drawn
// into the same slot.
type Chart interface {
	Release() error
}
