package rental

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ------------------ Users ------------------

// Users is the operator table; User ID is unique.
type Users struct {
	*Repository[User]
}

func NewUsers(st Store, log *zap.Logger) *Users {
	return &Users{newRepository(st, UsersSchema, encodeUser, decodeUser, log, ColUserID)}
}

// Register stores a new operator with a hashed password.
func (u *Users) Register(id, name, password string) error {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if strings.TrimSpace(password) == "" {
		return invalidInput("password cannot be empty")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return u.Add(User{ID: id, Name: name, Password: hash})
}

// DeleteByID removes the operator with the given id.
func (u *Users) DeleteByID(id string) (int, error) {
	return u.Delete(func(x User) bool { return x.ID == id })
}

// ------------------ Members ------------------

// Members is the customer table; MID is unique, names are not.
type Members struct {
	*Repository[Member]
}

func NewMembers(st Store, log *zap.Logger) *Members {
	return &Members{newRepository(st, MembersSchema, encodeMember, decodeMember, log, ColMemberID)}
}

// AddNew registers a member with a zero booking count.
func (m *Members) AddNew(id int64, name, phone string) error {
	return m.Add(Member{ID: id, Name: name, Phone: phone})
}

// ByName returns the first well-formed member whose name matches exactly.
// This is the same row AdjustBookings updates.
func (m *Members) ByName(name string) (*Member, error) {
	member, found, err := m.First(ColMemberName, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &NotFoundError{Entity: "Member", Key: name}
	}
	return &member, nil
}

// ByID returns the member with the given MID.
func (m *Members) ByID(id int64) (*Member, error) {
	all, err := m.All()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, &NotFoundError{Entity: "Member", Key: formatInt(id)}
}

// DeleteByID removes the member with the given MID. Their active bookings
// are left in place.
func (m *Members) DeleteByID(id int64) (int, error) {
	return m.Delete(func(x Member) bool { return x.ID == id })
}

// CounterChange reports one adjustment of a member's booking counter.
type CounterChange struct {
	MemberName string
	Previous   string // raw stored value before the change
	Current    int64
	Repaired   bool // Previous was not an integer and was reset
}

// AdjustBookings adds delta to the booking counter of the first well-formed
// member named name, flooring the result at zero. A counter that is not an integer is
// repaired: it restarts from zero, so an increment stores 1 and a decrement
// stores 0. It returns nil when no member has that name.
func (m *Members) AdjustBookings(name string, delta int64) (*CounterChange, error) {
	var change *CounterChange
	err := m.Update(func(t *Table) (bool, error) {
		for _, rec := range t.Rows {
			if rec[ColMemberName] != name {
				continue
			}
			if _, err := decodeMember(rec); err != nil {
				continue
			}
			prev := rec[ColCarsBooked]
			next, repaired := applyCounterDelta(prev, delta)
			rec[ColCarsBooked] = formatInt(next)
			change = &CounterChange{MemberName: name, Previous: prev, Current: next, Repaired: repaired}
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if change != nil && change.Repaired {
		m.log.Warn("repaired booking counter",
			zap.String("member", name),
			zap.String("stored", change.Previous),
			zap.Int64("reset_to", change.Current),
		)
	}
	return change, nil
}

func applyCounterDelta(raw string, delta int64) (int64, bool) {
	cur, ok := parseCounter(raw)
	if !ok {
		return max(0, delta), true
	}
	return max(0, cur+delta), false
}

// parseCounter accepts plain integers and integral floats such as "2.0",
// which spreadsheet tools write for numeric columns with blanks.
func parseCounter(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// ------------------ Cars ------------------

// Cars is the fleet table; both Car No. and Car Name are unique.
type Cars struct {
	*Repository[Car]
}

func NewCars(st Store, log *zap.Logger) *Cars {
	return &Cars{newRepository(st, CarsSchema, encodeCar, decodeCar, log, ColCarNumber, ColCarName)}
}

// ByName returns the car with exactly this name. A row with that name that
// does not decode (say a non-numeric cost) is reported rather than priced.
func (c *Cars) ByName(name string) (*Car, error) {
	car, found, err := c.First(ColCarName, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &NotFoundError{Entity: "Car", Key: name}
	}
	return &car, nil
}

// DeleteByNumber removes the car with the given number. Bookings that name
// it are not cancelled.
func (c *Cars) DeleteByNumber(number int64) (int, error) {
	return c.Delete(func(x Car) bool { return x.Number == number })
}

// ------------------ Active bookings ------------------

// ActiveBookings holds rentals in progress. Duplicate car/member pairs are
// allowed.
type ActiveBookings struct {
	*Repository[ActiveBooking]
}

func NewActiveBookings(st Store, log *zap.Logger) *ActiveBookings {
	return &ActiveBookings{newRepository(st, ActiveBookingsSchema, encodeActiveBooking, decodeActiveBooking, log)}
}

func pairMatcher(carName, memberName string) func(Record) bool {
	return func(rec Record) bool {
		return rec[ColCarName] == carName && rec[ColMemberName] == memberName
	}
}

// Matching returns the raw rows booked for exactly this car and member.
func (a *ActiveBookings) Matching(carName, memberName string) ([]Record, error) {
	return a.Records(pairMatcher(carName, memberName))
}

// RemoveMatching deletes every row for this car and member in one rewrite.
func (a *ActiveBookings) RemoveMatching(carName, memberName string) (int, error) {
	return a.DeleteRecords(pairMatcher(carName, memberName))
}

// DeleteByCar removes every active booking naming the car. Member counters
// are not touched.
func (a *ActiveBookings) DeleteByCar(carName string) (int, error) {
	return a.DeleteRecords(func(rec Record) bool { return rec[ColCarName] == carName })
}

// ------------------ Returned bookings ------------------

// ReturnedBookings is the append-only archive of closed bookings.
type ReturnedBookings struct {
	repo *Repository[ReturnedBooking]
}

func NewReturnedBookings(st Store, log *zap.Logger) *ReturnedBookings {
	return &ReturnedBookings{repo: newRepository(st, ReturnedBookingsSchema, encodeReturnedBooking, decodeReturnedBooking, log)}
}

// Append archives raw rows in one rewrite.
func (r *ReturnedBookings) Append(recs []Record) error { return r.repo.AppendRecords(recs) }

// All returns the archive in the order bookings were closed.
func (r *ReturnedBookings) All() ([]ReturnedBooking, error) { return r.repo.All() }

// FindByField returns archived bookings whose field equals value exactly.
func (r *ReturnedBookings) FindByField(field, value string) ([]ReturnedBooking, error) {
	return r.repo.FindByField(field, value)
}
