package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal: no admite más cambios.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// TimeSlot es una de las 8 franjas fijas de una hora (almuerzo 12-13 sin turnos).
type TimeSlot string

const (
	Slot0800 TimeSlot = "08:00-09:00"
	Slot0900 TimeSlot = "09:00-10:00"
	Slot1000 TimeSlot = "10:00-11:00"
	Slot1100 TimeSlot = "11:00-12:00"
	Slot1300 TimeSlot = "13:00-14:00"
	Slot1400 TimeSlot = "14:00-15:00"
	Slot1500 TimeSlot = "15:00-16:00"
	Slot1600 TimeSlot = "16:00-17:00"
)

// Slots en orden cronológico.
var Slots = []TimeSlot{Slot0800, Slot0900, Slot1000, Slot1100, Slot1300, Slot1400, Slot1500, Slot1600}

func (t TimeSlot) Valid() bool {
	for _, s := range Slots {
		if s == t {
			return true
		}
	}
	return false
}

// Appointment es un turno. Date es un día calendario (00:00 UTC de esa fecha),
// nunca un instante: el chequeo de conflicto compara días, no timestamps.
type Appointment struct {
	ID         string
	CustomerID string
	PetID      string
	StaffID    string // opcional

	Service  string
	Date     time.Time
	TimeSlot TimeSlot
	Status   Status
	Notes    string
	Price    decimal.Decimal

	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Live: ocupa su franja (todo lo que no está cancelado).
func (a Appointment) Live() bool { return a.Status != StatusCancelled }

// ConflictsWith indica si ambos turnos ocupan la misma (staff, día, franja).
// Sin staff asignado no hay conflicto posible.
func (a Appointment) ConflictsWith(b Appointment) bool {
	if a.ID == b.ID || a.StaffID == "" || !a.Live() || !b.Live() {
		return false
	}
	return a.StaffID == b.StaffID && SameDay(a.Date, b.Date) && a.TimeSlot == b.TimeSlot
}

type ListFilter struct {
	CustomerID string
	StaffID    string
	PetID      string
	Status     Status
	From       *time.Time // inclusive, día calendario
	To         *time.Time // inclusive, día calendario

	Offset int
	Limit  int
}

type StaffMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SlotAvailability: con staff indicado se usan Available/AppointmentID;
// sin staff, AvailableStaff.
type SlotAvailability struct {
	Slot           TimeSlot      `json:"slot"`
	Available      bool          `json:"available"`
	AppointmentID  string        `json:"appointment_id,omitempty"`
	AvailableStaff []StaffMember `json:"available_staff,omitempty"`
}

const dateLayout = "2006-01-02"

// ParseDate interpreta YYYY-MM-DD como día calendario.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// Day trunca un instante al día calendario en loc y lo representa como 00:00 UTC.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func FormatDate(t time.Time) string { return t.Format(dateLayout) }
