package model

import "github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"

type Court struct {
	ID                  string
	Name                string
	Surface             string
	Indoor              bool
	Open                availability.TimeOfDay
	Close               availability.TimeOfDay
	SlotDurationMinutes int
	Active              bool
}

func (c Court) Hours() availability.OperatingHours {
	return availability.OperatingHours{
		Open:                c.Open,
		Close:               c.Close,
		SlotDurationMinutes: c.SlotDurationMinutes,
	}
}
