package rental

import (
	"strconv"
	"strings"
)

// Kind is the semantic type of a column. Every value is a string on disk.
// Load reports KindInt cells that do not hold an integer, and uniqueness
// checks compare KindInt cells numerically.
type Kind int

const (
	KindString Kind = iota
	KindInt
)

// Valid reports whether raw is a well-formed cell of kind k.
func (k Kind) Valid(raw string) bool {
	if k != KindInt {
		return true
	}
	_, ok := parseIntCell(raw)
	return ok
}

// Equal reports whether two stored cells hold the same value. KindInt cells
// that both parse are compared as numbers, so "007" equals "7".
func (k Kind) Equal(a, b string) bool {
	if k == KindInt {
		x, okA := parseIntCell(a)
		y, okB := parseIntCell(b)
		if okA && okB {
			return x == y
		}
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return a == b
}

func parseIntCell(raw string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Column describes one expected column of a table.
type Column struct {
	Name    string
	Kind    Kind
	Default string // value synthesized when the column is missing on load
}

// Schema is the versioned descriptor of a flat table. Load validates a
// stored table against it and fills missing columns with their defaults.
type Schema struct {
	Name    string // table id; the CSV backend appends ".csv"
	Version int
	Columns []Column
}

// ColumnNames returns the expected columns in order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// KindOf returns the kind of the named column. Columns the schema does not
// expect are strings.
func (s Schema) KindOf(name string) Kind {
	for _, c := range s.Columns {
		if c.Name == name {
			return c.Kind
		}
	}
	return KindString
}

// Has reports whether name is one of the expected columns.
func (s Schema) Has(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Column headers. They match the CSV files operators already keep, so
// existing files keep loading.
const (
	ColUserID   = "User ID"
	ColUserName = "User Name"
	ColPassword = "Password"

	ColMemberID   = "MID"
	ColMemberName = "M Name"
	ColPhone      = "Phone No."
	ColCarsBooked = "No. of cars Booked"

	ColCarNumber = "Car No."
	ColCarName   = "Car Name"
	ColBrand     = "Brand"
	ColBranch    = "Branch"
	ColFuelType  = "Fuel Type"
	ColCost      = "Cost"
	ColCategory  = "Category"

	ColBookingDate  = "Date of Booking"
	ColDays         = "No. of Days"
	ColTotalCost    = "Total Cost"
	ColReturnStatus = "Return Status"
	ColReturnDate   = "Return Date"
)

var (
	UsersSchema = Schema{
		Name:    "Users",
		Version: 1,
		Columns: []Column{
			{Name: ColUserID},
			{Name: ColUserName},
			{Name: ColPassword},
		},
	}

	MembersSchema = Schema{
		Name:    "Members",
		Version: 1,
		Columns: []Column{
			{Name: ColMemberID, Kind: KindInt},
			{Name: ColMemberName},
			{Name: ColPhone},
			{Name: ColCarsBooked, Kind: KindInt},
		},
	}

	CarsSchema = Schema{
		Name:    "Cars",
		Version: 1,
		Columns: []Column{
			{Name: ColCarNumber, Kind: KindInt},
			{Name: ColCarName},
			{Name: ColBrand},
			{Name: ColBranch},
			{Name: ColFuelType},
			{Name: ColCost, Kind: KindInt},
			{Name: ColCategory},
		},
	}

	ActiveBookingsSchema = Schema{
		Name:    "Cars Booked",
		Version: 1,
		Columns: []Column{
			{Name: ColCarName},
			{Name: ColMemberName},
			{Name: ColBookingDate},
			{Name: ColDays, Kind: KindInt},
			{Name: ColTotalCost, Kind: KindInt},
			{Name: ColReturnStatus},
		},
	}

	ReturnedBookingsSchema = Schema{
		Name:    "Returned Cars",
		Version: 1,
		Columns: []Column{
			{Name: ColCarName},
			{Name: ColMemberName},
			{Name: ColBookingDate},
			{Name: ColDays, Kind: KindInt},
			{Name: ColTotalCost, Kind: KindInt},
			{Name: ColReturnDate},
		},
	}

	// AllSchemas lists every table the tool manages.
	AllSchemas = []Schema{UsersSchema, MembersSchema, CarsSchema, ActiveBookingsSchema, ReturnedBookingsSchema}
)
