package ledger

import "time"

const DefaultDepartment = "General Hospital"

// HospitalState is the per-facility bed and staffing snapshot. One row is
// expected to exist; GetOrCreate creates it on first access.
type HospitalState struct {
	ID               uint      `json:"id" gorm:"primaryKey;column:id"`
	Department       string    `json:"department" gorm:"column:department"`
	ICUBedsTotal     int       `json:"icuBedsTotal" gorm:"column:icu_beds_total"`
	ICUBedsOccupied  int       `json:"icuBedsOccupied" gorm:"column:icu_beds_occupied"`
	WardBedsTotal    int       `json:"wardBedsTotal" gorm:"column:ward_beds_total"`
	WardBedsOccupied int       `json:"wardBedsOccupied" gorm:"column:ward_beds_occupied"`
	ERBedsTotal      int       `json:"erBedsTotal" gorm:"column:er_beds_total"`
	ERBedsOccupied   int       `json:"erBedsOccupied" gorm:"column:er_beds_occupied"`
	NursesActive     int       `json:"nursesActive" gorm:"column:nurses_active"`
	DoctorsActive    int       `json:"doctorsActive" gorm:"column:doctors_active"`
	StaffLoad        float64   `json:"staffLoad" gorm:"column:staff_load"`
	LastUpdated      time.Time `json:"lastUpdated" gorm:"column:last_updated"`
	CreatedAt        time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt        time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

func (HospitalState) TableName() string {
	return "hospital_states"
}

// DefaultState returns the record created when none exists.
func DefaultState() HospitalState {
	return HospitalState{
		Department:    DefaultDepartment,
		ICUBedsTotal:  20,
		WardBedsTotal: 100,
		ERBedsTotal:   30,
		NursesActive:  50,
		DoctorsActive: 20,
		StaffLoad:     0,
		LastUpdated:   time.Now().UTC(),
	}
}

// Clamp forces every occupied counter into [0, total].
func (s *HospitalState) Clamp() {
	s.ICUBedsOccupied = clampInt(s.ICUBedsOccupied, 0, s.ICUBedsTotal)
	s.WardBedsOccupied = clampInt(s.WardBedsOccupied, 0, s.WardBedsTotal)
	s.ERBedsOccupied = clampInt(s.ERBedsOccupied, 0, s.ERBedsTotal)
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
