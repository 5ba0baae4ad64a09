package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bike is a listing as the server returns it.
type Bike struct {
	ID               int        `json:"id"`
	Title            string     `json:"title"`
	Brand            *string    `json:"brand"`
	Model            *string    `json:"model"`
	Year             *int       `json:"year"`
	Size             *string    `json:"size"`
	PriceUSD         *int       `json:"price_usd"`
	State            *string    `json:"state"`
	WheelSize        *string    `json:"wheel_size"`
	Condition        *string    `json:"condition"`
	Zip              *string    `json:"zip"`
	Description      *string    `json:"description"`
	OwnerID          *int       `json:"owner_id"`
	OwnerEmail       *string    `json:"owner_email"`
	FrameSizeIn      *int       `json:"frame_size_in"`
	RiderHeightMinIn *int       `json:"rider_height_min_in"`
	RiderHeightMaxIn *int       `json:"rider_height_max_in"`
	BikeType         *string    `json:"bike_type"`
	FrameMaterial    *string    `json:"frame_material"`
	DrivetrainRear   *string    `json:"drivetrain_rear"`
	BrakesModel      *string    `json:"brakes_model"`
	Saddle           *string    `json:"saddle"`
	WeightLb         *float64   `json:"weight_lb"`
	Photos           []string   `json:"photos"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        *Timestamp `json:"created_at"`
	ExpiresAt        *Timestamp `json:"expires_at"`
}

// Timestamp parses the server's ISO-8601 timestamps, which carry no zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp %s: %w", b, err)
	}
	if s == "" {
		return nil
	}
	var err error
	for _, layout := range timestampLayouts {
		var parsed time.Time
		if parsed, err = time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return err
}

// Form is the bike listing form as typed by the user. Numeric fields are
// kept as text until the payload is built.
type Form struct {
	Title            string `json:"title" validate:"required"`
	PriceUSD         string `json:"price_usd" validate:"omitempty,numeric"`
	Brand            string `json:"brand"`
	Model            string `json:"model"`
	Year             string `json:"year" validate:"omitempty,numeric"`
	Size             string `json:"size"`
	State            string `json:"state" validate:"omitempty,alpha,len=2"`
	Zip              string `json:"zip" validate:"omitempty,number,len=5"`
	WheelSize        string `json:"wheel_size"`
	Condition        string `json:"condition"`
	Description      string `json:"description"`
	FrameSizeIn      string `json:"frame_size_in" validate:"omitempty,numeric"`
	RiderHeightMinIn string `json:"rider_height_min_in" validate:"omitempty,numeric"`
	RiderHeightMaxIn string `json:"rider_height_max_in" validate:"omitempty,numeric"`
	BikeType         string `json:"bike_type"`
	FrameMaterial    string `json:"frame_material"`
	DrivetrainRear   string `json:"drivetrain_rear"`
	BrakesModel      string `json:"brakes_model"`
	Saddle           string `json:"saddle"`
	WeightLb         string `json:"weight_lb" validate:"omitempty,numeric"`
}

// Mode selects between creating a draft and editing an existing bike.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// FormFromBike pre-fills a form from a stored bike, as the edit page does.
func FormFromBike(b *Bike) Form {
	return Form{
		Title:            b.Title,
		PriceUSD:         intText(b.PriceUSD),
		Brand:            text(b.Brand),
		Model:            text(b.Model),
		Year:             intText(b.Year),
		Size:             text(b.Size),
		State:            text(b.State),
		Zip:              text(b.Zip),
		WheelSize:        text(b.WheelSize),
		Condition:        text(b.Condition),
		Description:      text(b.Description),
		FrameSizeIn:      intText(b.FrameSizeIn),
		RiderHeightMinIn: intText(b.RiderHeightMinIn),
		RiderHeightMaxIn: intText(b.RiderHeightMaxIn),
		BikeType:         text(b.BikeType),
		FrameMaterial:    text(b.FrameMaterial),
		DrivetrainRear:   text(b.DrivetrainRear),
		BrakesModel:      text(b.BrakesModel),
		Saddle:           text(b.Saddle),
		WeightLb:         floatText(b.WeightLb),
	}
}
