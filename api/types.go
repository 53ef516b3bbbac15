package api

// SignInResponse is the credential-exchange response body. The backend
// guarantees at least these fields on HTTP 2xx.
type SignInResponse struct {
	AccessToken string   `json:"accessToken"`
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
}

// Vehicle is a fleet vehicle as listed by /api/vehicles/get.
type Vehicle struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	LicensePlates string `json:"licensePlates"`
	Type          string `json:"type"`
	GroupID       *int64 `json:"groupId,omitempty"`
}

// VehicleGroup is a named grouping used to filter positions.
type VehicleGroup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Position is a live vehicle position marker.
type Position struct {
	ID            int64   `json:"id"`
	VehicleID     int64   `json:"vehicleId"`
	Name          string  `json:"name"`
	LicensePlates string  `json:"licensePlates"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Speed         float64 `json:"speed"`
	Country       string  `json:"country"`
	RecordedAt    string  `json:"recordedAt"`
}

// CountryCount aggregates vehicle presence per country for the dashboard.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// Place is a repair location.
type Place struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Repair is a scheduled repair entry.
type Repair struct {
	ID            int64  `json:"id"`
	VehicleID     int64  `json:"vehicleId"`
	VehicleName   string `json:"vehicleName"`
	LicensePlates string `json:"licensePlates"`
	PlaceID       int64  `json:"placeId"`
	PlaceName     string `json:"placeName"`
	Description   string `json:"description"`
	PlannedDate   string `json:"plannedDate"`
	PlannedTime   string `json:"plannedTime"`
	Status        string `json:"status"`
}

// RepairInput is the create/update payload for a repair.
type RepairInput struct {
	VehicleID   int64  `json:"vehicleId"`
	VehicleName string `json:"vehicleName,omitempty"`
	PlaceID     int64  `json:"placeId"`
	PlaceName   string `json:"placeName,omitempty"`
	Description string `json:"description"`
	PlannedDate string `json:"plannedDate"`
	PlannedTime string `json:"plannedTime"`
	Status      string `json:"status"`
}

// RepairWeek groups repairs by calendar week, as returned by
// /api/repairs/grouped-by-week.
type RepairWeek struct {
	WeekStart string   `json:"weekStart"`
	WeekEnd   string   `json:"weekEnd"`
	Repairs   []Repair `json:"repairs"`
}

// Document describes a document attached to a vehicle.
type Document struct {
	ID        int64  `json:"id"`
	VehicleID int64  `json:"vehicleId"`
	Name      string `json:"name"`
	Type      string `json:"type"`
}
