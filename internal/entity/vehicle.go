package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inspection-wizard/constants"
)

// Vehicle is the insured or the third-party vehicle.
type Vehicle struct {
	ID      uuid.UUID      `json:"id"`
	Role    constants.Role `json:"role"`
	Plate   string         `json:"plate,omitempty"`
	VIN     string         `json:"vin,omitempty"`
	Brand   string         `json:"brand,omitempty"`
	Model   string         `json:"model,omitempty"`
	Year    int            `json:"year,omitempty"`
	Trim    string         `json:"trim,omitempty"`
	Color   string         `json:"color,omitempty"`
	Usage   string         `json:"usage,omitempty"` // private | commercial | taxi | ...
	Mileage int            `json:"mileage,omitempty"`
	Garaged bool           `json:"garaged"`
	Photos  []VehiclePhoto `json:"photos"`
}

// VehiclePhoto is one capture slot; Image stays nil until something is attached.
type VehiclePhoto struct {
	ID          uuid.UUID      `json:"id"`
	Slot        constants.Slot `json:"angle"`
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Image       *string        `json:"image"`
	Thumbnail   *string        `json:"thumbnail,omitempty"`
	CapturedAt  *time.Time     `json:"captured_at,omitempty"`
	Metadata    *PhotoMetadata `json:"metadata,omitempty"`
	Check       *CaptureCheck  `json:"check,omitempty"`
}

// PhotoMetadata is what the device reported about a capture.
type PhotoMetadata struct {
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	DeviceModel string   `json:"device_model,omitempty"`
	Width       int      `json:"width,omitempty"`
	Height      int      `json:"height,omitempty"`
	SizeBytes   int      `json:"size_bytes,omitempty"`
}

// HasImage reports whether an image is attached to the slot.
func (p VehiclePhoto) HasImage() bool {
	return p.Image != nil && *p.Image != ""
}

// PhotoBySlot returns the first photo for slot, or nil.
func (v *Vehicle) PhotoBySlot(slot constants.Slot) *VehiclePhoto {
	if v == nil {
		return nil
	}
	for i := range v.Photos {
		if v.Photos[i].Slot == slot {
			return &v.Photos[i]
		}
	}
	return nil
}

// CapturedPhotos counts photos with an attached image.
func (v *Vehicle) CapturedPhotos() int {
	if v == nil {
		return 0
	}
	n := 0
	for _, p := range v.Photos {
		if p.HasImage() {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of v (nil-safe).
func (v *Vehicle) Clone() *Vehicle {
	if v == nil {
		return nil
	}
	out := *v
	out.Photos = clonePhotos(v.Photos)
	return &out
}

// Clone returns a deep copy of the photo.
func (p VehiclePhoto) Clone() VehiclePhoto {
	out := p
	out.Image = cloneString(p.Image)
	out.Thumbnail = cloneString(p.Thumbnail)
	out.CapturedAt = cloneTime(p.CapturedAt)
	out.Check = p.Check.clone()
	if p.Metadata != nil {
		m := *p.Metadata
		m.Latitude = cloneFloat(p.Metadata.Latitude)
		m.Longitude = cloneFloat(p.Metadata.Longitude)
		out.Metadata = &m
	}
	return out
}

func clonePhotos(in []VehiclePhoto) []VehiclePhoto {
	if in == nil {
		return nil
	}
	out := make([]VehiclePhoto, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
