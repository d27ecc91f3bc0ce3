package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"car-rental/rental"
)

const menuRule = "----------------------------------------------------------------------------------------"

var menuItems = []string{
	"Add a User",
	"Delete a User",
	"Add a New Car",
	"Search for a Car",
	"Delete a Car",
	"Show all Cars",
	"Add a New Member",
	"Search for a Member",
	"Delete a Member",
	"Show all Members",
	"Book a Car",
	"Return a Car",
	"Show all Booked Cars",
	"Delete a Booked Car",
	"View Charts",
	"Exit",
}

// runMenu is the interactive front end: a login gate followed by the
// numbered menu until Exit or end of input.
func (a *app) runMenu() error {
	fmt.Fprintln(a.out, "---------------------------WELCOME TO LUXURY CAR RENTALS---------------------------")
	defer fmt.Fprintln(a.out, "THANK YOU FOR VISITING LUXURY CAR RENTALS")

	if err := a.login(); err != nil {
		if errors.Is(err, rental.ErrInvalidCredentials) {
			fmt.Fprintln(a.out, "Invalid login credentials")
			return nil
		}
		return err
	}
	fmt.Fprintln(a.out, "Login Successful!")

	for {
		choice, ok := a.showMenu()
		if !ok {
			return nil
		}
		switch choice {
		case 1:
			a.handleAddUser()
		case 2:
			a.handleDeleteUser()
		case 3:
			a.handleAddCar()
		case 4:
			a.handleSearchCar()
		case 5:
			a.handleDeleteCar()
		case 6:
			a.handleShowTable(rental.CarsSchema)
		case 7:
			a.handleAddMember()
		case 8:
			a.handleSearchMember()
		case 9:
			a.handleDeleteMember()
		case 10:
			a.handleShowTable(rental.MembersSchema)
		case 11:
			a.handleBookCar()
		case 12:
			a.handleReturnCar()
		case 13:
			a.handleShowBookedCars()
		case 14:
			a.handleDeleteBookedCar()
		case 15:
			a.handleCharts()
		case 16:
			return nil
		default:
			fmt.Fprintln(a.out, "Invalid Option Selected")
		}
	}
}

func (a *app) showMenu() (int, bool) {
	fmt.Fprintln(a.out, menuRule)
	fmt.Fprintln(a.out, "                               LUXURY CAR RENTALS                                       ")
	fmt.Fprintln(a.out, menuRule)
	for i, item := range menuItems {
		fmt.Fprintf(a.out, "%d - %s\n", i+1, item)
	}
	answer, ok := a.prompt("Enter your choice: ")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		return -1, true
	}
	return n, true
}

// promptInt asks for an integer and reports non-numeric answers.
func (a *app) promptInt(label, field string) (int64, bool) {
	answer, ok := a.prompt(label)
	if !ok {
		return 0, false
	}
	v, err := rental.ParseInt(field, answer)
	if err != nil {
		fmt.Fprintf(a.out, "%s must be an integer.\n", field)
		return 0, false
	}
	return v, true
}

// report prints err the way the menu shows failures.
func (a *app) report(err error) {
	var dup *rental.DuplicateKeyError
	var nf *rental.NotFoundError
	switch {
	case errors.As(err, &dup):
		fmt.Fprintf(a.out, "A record with that %s already exists.\n", dup.Field)
	case errors.As(err, &nf):
		fmt.Fprintf(a.out, "No %s found for %q\n", strings.ToLower(nf.Entity), nf.Key)
	default:
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
}

// ------------------ Users ------------------

func (a *app) handleAddUser() {
	id, ok := a.prompt("Enter User ID: ")
	if !ok {
		return
	}
	name, ok := a.prompt("Enter User Name: ")
	if !ok {
		return
	}
	pw, err := a.readPassword("Enter Password: ")
	if err != nil {
		fmt.Fprintf(a.out, "Error reading password: %v\n", err)
		return
	}
	if err := a.mgr.AddUser(id, name, pw); err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, "User added successfully")
	a.handleShowTable(rental.UsersSchema)
}

func (a *app) handleDeleteUser() {
	id, ok := a.prompt("Enter a User ID: ")
	if !ok {
		return
	}
	n, err := a.mgr.DeleteUser(id)
	if err != nil {
		a.report(err)
		return
	}
	fmt.Fprintf(a.out, "User deleted successfully (%d removed)\n", n)
	a.handleShowTable(rental.UsersSchema)
}

// ------------------ Cars ------------------

func (a *app) handleAddCar() {
	number, ok := a.promptInt("Enter a Car Number: ", "Car Number")
	if !ok {
		return
	}
	var car rental.Car
	car.Number = number
	for _, f := range []struct {
		label string
		dst   *string
	}{
		{"Enter Name of the Car: ", &car.Name},
		{"Enter brand of the Car: ", &car.Brand},
		{"Enter branch: ", &car.Branch},
		{"Enter fuel type of the car: ", &car.FuelType},
	} {
		if *f.dst, ok = a.prompt(f.label); !ok {
			return
		}
	}
	if car.CostPerDay, ok = a.promptInt("Enter cost of rent per day: ", "Cost"); !ok {
		return
	}
	if car.Category, ok = a.prompt("Enter category of the car: "); !ok {
		return
	}

	if err := a.mgr.AddCar(car); err != nil {
		if errors.Is(err, rental.ErrDuplicateKey) {
			fmt.Fprintln(a.out, "A car with the same number or name already exists.")
			return
		}
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, "Car added successfully!")
}

func (a *app) handleSearchCar() {
	name, ok := a.prompt("Enter a Car name: ")
	if !ok {
		return
	}
	cars, err := a.mgr.SearchCar(name)
	if err != nil {
		a.report(err)
		return
	}
	if len(cars) == 0 {
		fmt.Fprintln(a.out, "No cars found with the given name")
		return
	}
	fmt.Fprintln(a.out, "Car details are:")
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(rental.CarsSchema.ColumnNames(), "\t"))
	for _, c := range cars {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n", c.Number, c.Name, c.Brand, c.Branch, c.FuelType, c.CostPerDay, c.Category)
	}
	w.Flush()
}

func (a *app) handleDeleteCar() {
	number, ok := a.promptInt("Enter a car number: ", "Car Number")
	if !ok {
		return
	}
	if _, err := a.mgr.DeleteCar(number); err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, "Car Deleted Successfully")
	a.handleShowTable(rental.CarsSchema)
}

// ------------------ Members ------------------

func (a *app) handleAddMember() {
	id, ok := a.promptInt("Enter a member id: ", "Member ID")
	if !ok {
		return
	}
	name, ok := a.prompt("Enter member name: ")
	if !ok {
		return
	}
	phone, ok := a.prompt("Enter phone number: ")
	if !ok {
		return
	}
	if err := a.mgr.AddMember(id, name, phone); err != nil {
		if errors.Is(err, rental.ErrDuplicateKey) {
			fmt.Fprintln(a.out, "Member with this MID already exists.")
			return
		}
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, "New Member added successfully!")
	a.handleShowTable(rental.MembersSchema)
}

func (a *app) handleSearchMember() {
	name, ok := a.prompt("Enter a member name: ")
	if !ok {
		return
	}
	members, err := a.mgr.SearchMember(name)
	if err != nil {
		a.report(err)
		return
	}
	if len(members) == 0 {
		fmt.Fprintln(a.out, "No members found with the given name")
		return
	}
	fmt.Fprintln(a.out, "Member details are:")
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(rental.MembersSchema.ColumnNames(), "\t"))
	for _, m := range members {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", m.ID, m.Name, m.Phone, m.Bookings)
	}
	w.Flush()
}

func (a *app) handleDeleteMember() {
	id, ok := a.promptInt("Enter a member id: ", "Member ID")
	if !ok {
		return
	}
	if _, err := a.mgr.DeleteMember(id); err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, "Member deleted successfully")
	a.handleShowTable(rental.MembersSchema)
}

// ------------------ Bookings ------------------

func (a *app) handleBookCar() {
	var req rental.BookingRequest
	var ok bool
	if req.CarName, ok = a.prompt("Enter car name: "); !ok {
		return
	}
	if req.MemberName, ok = a.prompt("Enter member name: "); !ok {
		return
	}
	if req.BookingDate, ok = a.prompt("Enter date of booking (e.g. 2025-11-19): "); !ok {
		return
	}
	if req.Days, ok = a.promptInt("Enter the number of days booked: ", "Number of days"); !ok {
		return
	}

	bill, err := a.mgr.BookCar(req)
	if bill != nil {
		bill.Render(a.out)
	}
	if err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, "Car booked successfully")
	a.handleShowTable(rental.ActiveBookingsSchema)
}

// confirmReturn lists the bookings about to close and asks for a yes.
func (a *app) confirmReturn(matched []rental.ActiveBooking) bool {
	fmt.Fprintln(a.out, "Booking found:")
	printBookings(a.out, matched)
	answer, ok := a.prompt("Are you sure you want to return the car (yes/no)? ")
	return ok && strings.ToLower(answer) == "yes"
}

func (a *app) handleReturnCar() {
	var req rental.ReturnRequest
	var ok bool
	if req.MemberName, ok = a.prompt("Enter member name: "); !ok {
		return
	}
	if req.CarName, ok = a.prompt("Enter car name: "); !ok {
		return
	}
	if _, err := a.mgr.FindBookings(req.CarName, req.MemberName); err != nil {
		if errors.Is(err, rental.ErrNotFound) {
			fmt.Fprintln(a.out, "No such booking found")
			return
		}
		a.report(err)
		return
	}
	if req.ReturnDate, ok = a.prompt("Enter return date (e.g. 2025-11-20): "); !ok {
		return
	}

	_, err := a.mgr.ReturnCar(req, a.confirmReturn)
	switch {
	case errors.Is(err, rental.ErrAborted):
		fmt.Fprintln(a.out, "Return operation cancelled")
	case err != nil:
		a.report(err)
	default:
		fmt.Fprintln(a.out, "Car returned successfully and moved to", rental.ReturnedBookingsSchema.Name)
	}
}

func (a *app) handleShowBookedCars() {
	bookings, err := a.mgr.GetActiveBookings()
	if err != nil {
		a.report(err)
		return
	}
	if len(bookings) == 0 {
		fmt.Fprintln(a.out, "No active bookings.")
		return
	}
	a.handleShowTable(rental.ActiveBookingsSchema)
	rental.RenderBookingSummary(a.out, bookings)
}

func (a *app) handleDeleteBookedCar() {
	name, ok := a.prompt("Enter a car name: ")
	if !ok {
		return
	}
	n, err := a.mgr.DeleteBookedCar(name)
	if err != nil {
		a.report(err)
		return
	}
	fmt.Fprintf(a.out, "Deleted %d booked entries for car '%s'\n", n, name)
	a.handleShowTable(rental.ActiveBookingsSchema)
}

// ------------------ Charts ------------------

func (a *app) handleCharts() {
	fmt.Fprintln(a.out, "Press 1 - Cars and their Rental Cost")
	fmt.Fprintln(a.out, "Press 2 - Number of Cars booked by members")
	choice, ok := a.prompt("Enter your choice: ")
	if !ok {
		return
	}
	var err error
	switch choice {
	case "1":
		err = a.chartRates()
	case "2":
		err = a.chartBookings()
	default:
		fmt.Fprintln(a.out, "Invalid choice for charts.")
	}
	if err != nil {
		a.report(err)
	}
}

func (a *app) chartRates() error {
	rates, err := a.mgr.RateSheet()
	if err != nil {
		return err
	}
	if len(rates) == 0 {
		fmt.Fprintln(a.out, "No car data to plot.")
		return nil
	}
	rental.RenderBarChart(a.out, "Cars and their Rental Cost", "Cost per day", rental.RateBars(rates))
	return nil
}

func (a *app) chartBookings() error {
	dist, err := a.mgr.BookingDistribution()
	if err != nil {
		return err
	}
	if len(dist) == 0 {
		fmt.Fprintln(a.out, "No booking data to plot.")
		return nil
	}
	rental.RenderBarChart(a.out, "Number of Cars booked by members", "Number of Active Bookings", rental.DistributionBars(dist))
	return nil
}

// ------------------ Tables ------------------

func (a *app) handleShowTable(s rental.Schema) {
	t, err := a.mgr.Table(s)
	if err != nil {
		a.report(err)
		return
	}
	if s.Name == rental.UsersSchema.Name {
		t = maskPasswords(t)
	}
	printTable(a.out, t)
}

// maskPasswords returns a copy of t with the password column blanked out.
func maskPasswords(t *rental.Table) *rental.Table {
	out := &rental.Table{Columns: t.Columns}
	for _, r := range t.Rows {
		c := r.Clone()
		if c[rental.ColPassword] != "" {
			c[rental.ColPassword] = "********"
		}
		out.Append(c)
	}
	return out
}

func printTable(w io.Writer, t *rental.Table) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\t"+strings.Join(t.Columns, "\t"))
	for i, r := range t.Rows {
		fmt.Fprintf(tw, "%d\t%s\n", i, strings.Join(t.Values(r), "\t"))
	}
	if len(t.Rows) == 0 {
		fmt.Fprintln(tw, "(empty)")
	}
	tw.Flush()
}

func printBookings(w io.Writer, bookings []rental.ActiveBooking) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(rental.ActiveBookingsSchema.ColumnNames(), "\t"))
	for _, b := range bookings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", b.CarName, b.MemberName, b.BookingDate, b.Days, b.TotalCost, b.ReturnStatus)
	}
	tw.Flush()
}
