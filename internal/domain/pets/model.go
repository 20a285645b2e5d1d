package pets

import "time"

// Species define las especies soportadas.
// @Enum dog, cat, bird, rabbit, rodent, reptile, other
type Species string

const (
	SpeciesDog     Species = "dog"
	SpeciesCat     Species = "cat"
	SpeciesBird    Species = "bird"
	SpeciesRabbit  Species = "rabbit"
	SpeciesRodent  Species = "rodent"
	SpeciesReptile Species = "reptile"
	SpeciesOther   Species = "other"
)

func (s Species) Valid() bool {
	switch s {
	case SpeciesDog, SpeciesCat, SpeciesBird, SpeciesRabbit, SpeciesRodent, SpeciesReptile, SpeciesOther:
		return true
	default:
		return false
	}
}

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale || s == SexUnknown
}

// Pet es el perfil de una mascota. OwnerUserID no cambia después del alta.
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species Species
	Breed   string
	Sex     Sex

	BirthDate *time.Time
	WeightKg  float64
	Microchip string

	Notes string

	// Historia clínica embebida en el documento de la mascota.
	MedicalHistory []MedicalRecord

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecordType clasifica una entrada de historia clínica.
type RecordType string

const (
	RecordVaccination RecordType = "vaccination"
	RecordCheckup     RecordType = "checkup"
	RecordTreatment   RecordType = "treatment"
	RecordSurgery     RecordType = "surgery"
	RecordDeworming   RecordType = "deworming"
	RecordGrooming    RecordType = "grooming"
	RecordOther       RecordType = "other"
)

func (t RecordType) Valid() bool {
	switch t {
	case RecordVaccination, RecordCheckup, RecordTreatment, RecordSurgery, RecordDeworming, RecordGrooming, RecordOther:
		return true
	default:
		return false
	}
}

type MedicalRecord struct {
	ID   string     `json:"id"`
	Date time.Time  `json:"date"`
	Type RecordType `json:"type"`

	Description  string `json:"description"`
	Veterinarian string `json:"veterinarian,omitempty"`

	// NextDueDate alimenta los recordatorios (próxima vacuna, desparasitación, etc).
	NextDueDate *time.Time `json:"next_due_date,omitempty"`

	RecordedBy string    `json:"recorded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// Reminder es una entrada de historia clínica con vencimiento próximo o pasado.
type Reminder struct {
	PetID    string
	PetName  string
	RecordID string
	Type     RecordType
	Due      time.Time
	Overdue  bool
	DaysLeft int
}

type ListFilter struct {
	OwnerUserID string // vacío = todas (staff/admin)
	Species     Species
	Offset      int
	Limit       int
}
