package models

import "time"

// LoginActivity records one successful OTP verification. Location fields
// stay nil when the address could not be geolocated.
type LoginActivity struct {
	ID        string
	UserID    string
	IPAddress string
	City      *string
	Region    *string
	Country   *string
	Latitude  *float64
	Longitude *float64
	Device    string
	CreatedAt time.Time
}
