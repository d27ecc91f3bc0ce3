package rental

import (
	"fmt"
	"io"
	"math"
	"strings"

	"go.uber.org/zap"
)

// Engine runs the booking lifecycle. It is the only component that writes
// to more than one table per operation.
type Engine struct {
	cars     *Cars
	members  *Members
	active   *ActiveBookings
	returned *ReturnedBookings
	log      *zap.Logger
}

// NewEngine wires the engine to the repositories it coordinates.
func NewEngine(cars *Cars, members *Members, active *ActiveBookings, returned *ReturnedBookings, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cars: cars, members: members, active: active, returned: returned, log: log}
}

// BookingRequest asks for a car to be rented to a member.
type BookingRequest struct {
	CarName     string `validate:"required"`
	MemberName  string `validate:"required"`
	BookingDate string
	Days        int64 `validate:"gt=0"`
}

// Bill is the summary shown after a booking is stored.
type Bill struct {
	CarName     string
	MemberName  string
	BookingDate string
	CostPerDay  int64
	Days        int64
	TotalCost   int64
}

// Render writes the bill in the banner format printed at the counter.
func (b *Bill) Render(w io.Writer) {
	banner := strings.Repeat("^", 40)
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "      BILL GENERATED   ")
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "Car Rented:", b.CarName)
	fmt.Fprintln(w, "Name of Member:", b.MemberName)
	fmt.Fprintln(w, "Cost per Day:", b.CostPerDay)
	fmt.Fprintln(w, "Total Rental Cost:", b.TotalCost)
	fmt.Fprintln(w, banner)
}

// Book creates an active booking.
//
// The car and member are resolved by exact name, the cost is priced from the
// car's current rate (TotalCost = Days x CostPerDay, fixed from then on), the
// booking row is appended and the member's booking counter is incremented.
// All lookups and validation happen before the first write, so a failed
// request leaves every table unchanged.
func (e *Engine) Book(req BookingRequest) (*Bill, error) {
	car, err := e.cars.ByName(req.CarName)
	if err != nil {
		return nil, err
	}
	member, err := e.members.ByName(req.MemberName)
	if err != nil {
		return nil, err
	}
	if req.Days <= 0 {
		return nil, invalidInput("number of days must be a positive integer, got %d", req.Days)
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if car.CostPerDay > 0 && req.Days > math.MaxInt64/car.CostPerDay {
		return nil, invalidInput("total cost of %d days at %d per day overflows", req.Days, car.CostPerDay)
	}

	bill := &Bill{
		CarName:     car.Name,
		MemberName:  member.Name,
		BookingDate: req.BookingDate,
		CostPerDay:  car.CostPerDay,
		Days:        req.Days,
		TotalCost:   req.Days * car.CostPerDay,
	}

	booking := ActiveBooking{
		CarName:     bill.CarName,
		MemberName:  bill.MemberName,
		BookingDate: bill.BookingDate,
		Days:        bill.Days,
		TotalCost:   bill.TotalCost,
	}
	if err := e.active.Add(booking); err != nil {
		return nil, fmt.Errorf("store booking: %w", err)
	}
	e.log.Info("booking stored",
		zap.String("car", bill.CarName),
		zap.String("member", bill.MemberName),
		zap.Int64("days", bill.Days),
		zap.Int64("total_cost", bill.TotalCost),
	)

	if _, err := e.members.AdjustBookings(member.Name, 1); err != nil {
		return bill, fmt.Errorf("booking stored but member counter not updated: %w", err)
	}
	return bill, nil
}

// ReturnRequest closes every active booking of one car/member pair.
type ReturnRequest struct {
	CarName    string
	MemberName string
	ReturnDate string
}

// Confirmer is shown the bookings about to be closed and decides whether
// to proceed. Returning false aborts with no writes.
type Confirmer func(matched []ActiveBooking) bool

// AlwaysConfirm approves every return without asking, for callers that
// confirmed up front (the --yes flag, loaders, tests).
func AlwaysConfirm([]ActiveBooking) bool { return true }

// Closure reports what a return did.
type Closure struct {
	Returned []ReturnedBooking
	Counter  *CounterChange // nil when no member carries the name
}

// Matching returns the active bookings of a car/member pair, or a NotFound
// error naming the booking when there are none.
func (e *Engine) Matching(carName, memberName string) ([]ActiveBooking, error) {
	recs, err := e.active.Matching(carName, memberName)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, &NotFoundError{Entity: "Booking", Key: carName + "/" + memberName}
	}
	out := make([]ActiveBooking, len(recs))
	for i, rec := range recs {
		out[i], _ = decodeActiveBooking(rec)
	}
	return out, nil
}

// Return closes every active booking matching the car and member exactly.
//
// confirm is required; a nil Confirmer aborts like one that declines. Once
// confirm approves, three writes follow in order: the matched rows are
// appended to the archive with the return date, removed from the active
// table in one rewrite, and the member's counter is decremented by the
// number of rows (floored at zero). The writes are not transactional: if a
// later step fails the earlier ones stay, and the returned error names the
// step that failed.
func (e *Engine) Return(req ReturnRequest, confirm Confirmer) (*Closure, error) {
	recs, err := e.active.Matching(req.CarName, req.MemberName)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, &NotFoundError{Entity: "Booking", Key: req.CarName + "/" + req.MemberName}
	}

	matched := make([]ActiveBooking, len(recs))
	for i, rec := range recs {
		matched[i], _ = decodeActiveBooking(rec)
	}
	if confirm == nil || !confirm(matched) {
		e.log.Info("return cancelled", zap.String("car", req.CarName), zap.String("member", req.MemberName))
		return nil, ErrAborted
	}

	archived := make([]Record, len(recs))
	closure := &Closure{Returned: make([]ReturnedBooking, len(recs))}
	for i, rec := range recs {
		archived[i] = archiveRecord(rec, req.ReturnDate)
		closure.Returned[i], _ = decodeReturnedBooking(archived[i])
	}

	if err := e.returned.Append(archived); err != nil {
		return nil, fmt.Errorf("archive bookings: %w", err)
	}
	e.log.Info("bookings archived", zap.String("car", req.CarName), zap.String("member", req.MemberName), zap.Int("rows", len(archived)))

	removed, err := e.active.RemoveMatching(req.CarName, req.MemberName)
	if err != nil {
		return closure, fmt.Errorf("bookings archived but not removed from active table: %w", err)
	}
	e.log.Info("active bookings removed", zap.Int("rows", removed))

	change, err := e.members.AdjustBookings(req.MemberName, -int64(len(recs)))
	if err != nil {
		return closure, fmt.Errorf("bookings closed but member counter not updated: %w", err)
	}
	closure.Counter = change
	return closure, nil
}
