package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"car-rental/rental"

	"go.uber.org/zap"
)

func testApp(t *testing.T, input string) (*app, *bytes.Buffer) {
	t.Helper()
	t.Setenv("RENTAL_PASSWORD", "pw")
	mgr, err := rental.NewRentalManager(rental.Config{DataDir: t.TempDir(), Backend: rental.BackendCSV}, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	if err := mgr.AddUser("admin", "Ann", "pw"); err != nil {
		t.Fatalf("add user: %v", err)
	}
	out := &bytes.Buffer{}
	return &app{
		log: zap.NewNop(),
		mgr: mgr,
		in:  bufio.NewScanner(strings.NewReader(input)),
		out: out,
	}, out
}

func TestMenuBookAndReturn(t *testing.T) {
	script := strings.Join([]string{
		"admin", "Ann",
		"3", "101", "Model X", "Tesla", "Pune", "Electric", "300", "SUV",
		"7", "1", "Alice", "555-0100",
		"11", "Model X", "Alice", "2025-01-02", "3",
		"12", "Alice", "Model X", "2025-01-05", "yes",
		"16",
	}, "\n") + "\n"
	a, out := testApp(t, script)

	if err := a.runMenu(); err != nil {
		t.Fatalf("run menu: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Login Successful!",
		"Car added successfully!",
		"New Member added successfully!",
		"Total Rental Cost: 900",
		"Car returned successfully",
		"THANK YOU FOR VISITING",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}

	returned, err := a.mgr.GetReturnedBookings()
	if err != nil {
		t.Fatalf("returned: %v", err)
	}
	if len(returned) != 1 || returned[0].ReturnDate != "2025-01-05" {
		t.Fatalf("unexpected archive: %+v", returned)
	}
}

func TestMenuRejectsBadLogin(t *testing.T) {
	a, out := testApp(t, "admin\nMallory\n")
	if err := a.runMenu(); err != nil {
		t.Fatalf("run menu: %v", err)
	}
	if !strings.Contains(out.String(), "Invalid login credentials") {
		t.Fatalf("output = %q", out.String())
	}
	if strings.Contains(out.String(), "LUXURY CAR RENTALS   ") {
		t.Fatal("menu shown after failed login")
	}
}

func TestMenuReportsBadInput(t *testing.T) {
	a, out := testApp(t, "admin\nAnn\n42\nabc\n5\nx\n12\nNobody\nGhost\n16\n")
	if err := a.runMenu(); err != nil {
		t.Fatalf("run menu: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Invalid Option Selected", "Car Number must be an integer.", "No such booking found"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestMaskPasswords(t *testing.T) {
	tb := &rental.Table{Columns: rental.UsersSchema.ColumnNames()}
	tb.Append(rental.Record{rental.ColUserID: "u", rental.ColUserName: "n", rental.ColPassword: "secret"})
	masked := maskPasswords(tb)
	if masked.Rows[0][rental.ColPassword] != "********" || tb.Rows[0][rental.ColPassword] != "secret" {
		t.Fatalf("mask = %v, original = %v", masked.Rows[0], tb.Rows[0])
	}
}
