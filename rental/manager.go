package rental

import (
	"go.uber.org/zap"
)

// RentalManager is a thin façade over the repositories and the booking
// engine, keeping CLI code simple. The repositories are built once at
// start-up and shared with the engine; there is no global table state.
type RentalManager struct {
	store    Store
	users    *Users
	members  *Members
	cars     *Cars
	active   *ActiveBookings
	returned *ReturnedBookings
	engine   *Engine
}

// NewRentalManager opens the configured store and makes sure every table
// exists.
func NewRentalManager(cfg Config, log *zap.Logger) (*RentalManager, error) {
	st, err := OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}
	mgr, err := NewRentalManagerWithStore(st, log)
	if err != nil {
		st.Close()
		return nil, err
	}
	return mgr, nil
}

// NewRentalManagerWithStore builds the manager over an already open store.
func NewRentalManagerWithStore(st Store, log *zap.Logger) (*RentalManager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := EnsureTables(st); err != nil {
		return nil, err
	}
	m := &RentalManager{
		store:    st,
		users:    NewUsers(st, log),
		members:  NewMembers(st, log),
		cars:     NewCars(st, log),
		active:   NewActiveBookings(st, log),
		returned: NewReturnedBookings(st, log),
	}
	m.engine = NewEngine(m.cars, m.members, m.active, m.returned, log.Named("engine"))
	return m, nil
}

// Close closes the underlying store.
func (m *RentalManager) Close() error { return m.store.Close() }

func (m *RentalManager) Users() *Users                       { return m.users }
func (m *RentalManager) Members() *Members                   { return m.members }
func (m *RentalManager) Cars() *Cars                         { return m.cars }
func (m *RentalManager) ActiveBookings() *ActiveBookings     { return m.active }
func (m *RentalManager) ReturnedBookings() *ReturnedBookings { return m.returned }
func (m *RentalManager) Engine() *Engine                     { return m.engine }

// ------------------ User helpers ------------------

func (m *RentalManager) Login(id, name, password string) (*User, error) {
	return m.users.Authenticate(id, name, password)
}

func (m *RentalManager) AddUser(id, name, password string) error {
	return m.users.Register(id, name, password)
}

func (m *RentalManager) DeleteUser(id string) (int, error) { return m.users.DeleteByID(id) }

// ------------------ Car helpers ------------------

func (m *RentalManager) AddCar(c Car) error                   { return m.cars.Add(c) }
func (m *RentalManager) SearchCar(name string) ([]Car, error) { return m.cars.FindByField(ColCarName, name) }
func (m *RentalManager) DeleteCar(number int64) (int, error)  { return m.cars.DeleteByNumber(number) }
func (m *RentalManager) GetAllCars() ([]Car, error)           { return m.cars.All() }

// ------------------ Member helpers ------------------

func (m *RentalManager) AddMember(id int64, name, phone string) error {
	return m.members.AddNew(id, name, phone)
}

func (m *RentalManager) SearchMember(name string) ([]Member, error) {
	return m.members.FindByField(ColMemberName, name)
}

func (m *RentalManager) DeleteMember(id int64) (int, error) { return m.members.DeleteByID(id) }
func (m *RentalManager) GetAllMembers() ([]Member, error)   { return m.members.All() }

// ------------------ Bookings ------------------

func (m *RentalManager) BookCar(req BookingRequest) (*Bill, error) { return m.engine.Book(req) }

func (m *RentalManager) FindBookings(carName, memberName string) ([]ActiveBooking, error) {
	return m.engine.Matching(carName, memberName)
}

func (m *RentalManager) ReturnCar(req ReturnRequest, confirm Confirmer) (*Closure, error) {
	return m.engine.Return(req, confirm)
}

func (m *RentalManager) GetActiveBookings() ([]ActiveBooking, error) { return m.active.All() }

// DeleteBookedCar drops every active booking of a car without archiving it
// or touching member counters.
func (m *RentalManager) DeleteBookedCar(carName string) (int, error) {
	return m.active.DeleteByCar(carName)
}

func (m *RentalManager) GetReturnedBookings() ([]ReturnedBooking, error) { return m.returned.All() }

// ------------------ Reports ------------------

func (m *RentalManager) RateSheet() ([]RateEntry, error) {
	cars, err := m.cars.All()
	if err != nil {
		return nil, err
	}
	return RateSheet(cars), nil
}

func (m *RentalManager) BookingDistribution() ([]MemberBookings, error) {
	bookings, err := m.active.All()
	if err != nil {
		return nil, err
	}
	return BookingDistribution(bookings), nil
}

// ------------------ Raw tables ------------------

// Table returns the full stored table of s, extra columns included, for
// the "show all" listings.
func (m *RentalManager) Table(s Schema) (*Table, error) { return m.store.Load(s) }
