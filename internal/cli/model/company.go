package model

// Статусы компании.
const (
	CompanyActive     = "Active"
	CompanyInactive   = "Inactive"
	CompanyOffboarded = "Offboarded"
)

// OnboardingRequest тело POST /companies/.
type OnboardingRequest struct {
	CompanyName       string `json:"company_name"`
	Sector            string `json:"sector"`
	SubSector         string `json:"sub_sector"`
	Country           string `json:"country"`
	IncorporationDate string `json:"incorporation_date"`
	ContactPerson     string `json:"contact_person_name"`
	ContactEmail      string `json:"contact_email"`
	Phone             string `json:"phone"`
	Frequency         string `json:"frequency"`
	Status            string `json:"status"`
}

// Company — созданная компания; ID нужен для загрузки документов.
type Company struct {
	ID          int64  `json:"id"`
	CompanyName string `json:"company_name"`
	Sector      string `json:"sector,omitempty"`
	Country     string `json:"country,omitempty"`
	Status      string `json:"status,omitempty"`
}
