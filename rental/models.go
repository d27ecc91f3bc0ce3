package rental

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// User is an operator allowed through the login gate.
type User struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"-" validate:"required"` // bcrypt hash or legacy plaintext
}

// Member is a registered customer. Bookings counts the member's active
// bookings; it is maintained incrementally, never recomputed.
type Member struct {
	ID       int64  `json:"id" validate:"gte=0"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone"`
	Bookings int64  `json:"bookings" validate:"gte=0"`
}

// Car is one vehicle of the fleet. Number and Name are both unique.
type Car struct {
	Number     int64  `json:"number" validate:"gte=0"`
	Name       string `json:"name" validate:"required"`
	Brand      string `json:"brand"`
	Branch     string `json:"branch"`
	FuelType   string `json:"fuel_type"`
	CostPerDay int64  `json:"cost_per_day" validate:"gte=0"`
	Category   string `json:"category"`
}

// ActiveBooking is a rental in progress. ReturnStatus stays empty while the
// booking is active.
type ActiveBooking struct {
	CarName      string `json:"car_name" validate:"required"`
	MemberName   string `json:"member_name" validate:"required"`
	BookingDate  string `json:"booking_date"`
	Days         int64  `json:"days" validate:"gt=0"`
	TotalCost    int64  `json:"total_cost" validate:"gte=0"`
	ReturnStatus string `json:"return_status" validate:"isdefault"`
}

// ReturnedBooking is an archived booking plus the date it was closed.
type ReturnedBooking struct {
	CarName     string `json:"car_name"`
	MemberName  string `json:"member_name"`
	BookingDate string `json:"booking_date"`
	Days        int64  `json:"days"`
	TotalCost   int64  `json:"total_cost"`
	ReturnDate  string `json:"return_date"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct maps validator failures onto ErrInvalidInput.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
		return invalidInput("%s", strings.Join(parts, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// ParseInt parses a user-supplied integer, trimming surrounding space.
func ParseInt(field, s string) (int64, error) {
	v, ok := parseIntCell(s)
	if !ok {
		return 0, invalidInput("%s must be an integer, got %q", field, s)
	}
	return v, nil
}

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

// lenientInt returns 0 for values that do not parse.
func lenientInt(s string) int64 {
	v, _ := parseIntCell(s)
	return v
}

// ---------------------------------------------------------------------------
// Record codecs
// ---------------------------------------------------------------------------

func encodeUser(u User) Record {
	return Record{ColUserID: u.ID, ColUserName: u.Name, ColPassword: u.Password}
}

func decodeUser(r Record) (User, error) {
	return User{ID: r[ColUserID], Name: r[ColUserName], Password: r[ColPassword]}, nil
}

func encodeMember(m Member) Record {
	return Record{
		ColMemberID:   formatInt(m.ID),
		ColMemberName: m.Name,
		ColPhone:      m.Phone,
		ColCarsBooked: formatInt(m.Bookings),
	}
}

// decodeMember requires a numeric id. A corrupt booking counter decodes as
// zero; the repair policy in Members.AdjustBookings rewrites it on the next
// booking change.
func decodeMember(r Record) (Member, error) {
	id, err := ParseInt(ColMemberID, r[ColMemberID])
	if err != nil {
		return Member{}, err
	}
	return Member{
		ID:       id,
		Name:     r[ColMemberName],
		Phone:    r[ColPhone],
		Bookings: lenientInt(r[ColCarsBooked]),
	}, nil
}

func encodeCar(c Car) Record {
	return Record{
		ColCarNumber: formatInt(c.Number),
		ColCarName:   c.Name,
		ColBrand:     c.Brand,
		ColBranch:    c.Branch,
		ColFuelType:  c.FuelType,
		ColCost:      formatInt(c.CostPerDay),
		ColCategory:  c.Category,
	}
}

func decodeCar(r Record) (Car, error) {
	num, err := ParseInt(ColCarNumber, r[ColCarNumber])
	if err != nil {
		return Car{}, err
	}
	cost, err := ParseInt(ColCost, r[ColCost])
	if err != nil {
		return Car{}, fmt.Errorf("car %q: %w", r[ColCarName], err)
	}
	return Car{
		Number:     num,
		Name:       r[ColCarName],
		Brand:      r[ColBrand],
		Branch:     r[ColBranch],
		FuelType:   r[ColFuelType],
		CostPerDay: cost,
		Category:   r[ColCategory],
	}, nil
}

func encodeActiveBooking(b ActiveBooking) Record {
	return Record{
		ColCarName:      b.CarName,
		ColMemberName:   b.MemberName,
		ColBookingDate:  b.BookingDate,
		ColDays:         formatInt(b.Days),
		ColTotalCost:    formatInt(b.TotalCost),
		ColReturnStatus: b.ReturnStatus,
	}
}

// Booking rows are moved to the archive verbatim, so their numeric fields
// are decoded for display only and never rejected.
func decodeActiveBooking(r Record) (ActiveBooking, error) {
	return ActiveBooking{
		CarName:      r[ColCarName],
		MemberName:   r[ColMemberName],
		BookingDate:  r[ColBookingDate],
		Days:         lenientInt(r[ColDays]),
		TotalCost:    lenientInt(r[ColTotalCost]),
		ReturnStatus: r[ColReturnStatus],
	}, nil
}

func encodeReturnedBooking(b ReturnedBooking) Record {
	return Record{
		ColCarName:     b.CarName,
		ColMemberName:  b.MemberName,
		ColBookingDate: b.BookingDate,
		ColDays:        formatInt(b.Days),
		ColTotalCost:   formatInt(b.TotalCost),
		ColReturnDate:  b.ReturnDate,
	}
}

func decodeReturnedBooking(r Record) (ReturnedBooking, error) {
	return ReturnedBooking{
		CarName:     r[ColCarName],
		MemberName:  r[ColMemberName],
		BookingDate: r[ColBookingDate],
		Days:        lenientInt(r[ColDays]),
		TotalCost:   lenientInt(r[ColTotalCost]),
		ReturnDate:  r[ColReturnDate],
	}, nil
}

// archiveRecord copies the booking fields of an active row verbatim and
// stamps the return date.
func archiveRecord(active Record, returnDate string) Record {
	return Record{
		ColCarName:     active[ColCarName],
		ColMemberName:  active[ColMemberName],
		ColBookingDate: active[ColBookingDate],
		ColDays:        active[ColDays],
		ColTotalCost:   active[ColTotalCost],
		ColReturnDate:  returnDate,
	}
}
