package models

// TimeSlot is a technician's offered window. Date is "DD-MM-YYYY", times are 12-hour clock strings.
type TimeSlot struct {
	ID          string `json:"_id"`
	Technician  string `json:"technician,omitempty"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsBooked    bool   `json:"isBooked"`
	IsAvailable bool   `json:"isAvailable"`
}
