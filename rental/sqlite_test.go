package rental

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempSQLite(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLiteStore(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st, path
}

func TestSQLiteRoundTrip(t *testing.T) {
	st, _ := tempSQLite(t)

	tb, err := st.Load(CarsSchema)
	require.NoError(t, err)
	assert.Empty(t, tb.Rows)
	assert.Equal(t, CarsSchema.ColumnNames(), tb.Columns)

	tb.Append(Record{ColCarNumber: "7", ColCarName: "Phantom", ColCost: "1200"})
	tb.Append(Record{ColCarNumber: "3", ColCarName: "Urus", ColCost: "800"})
	require.NoError(t, st.Save(CarsSchema, tb))

	got, err := st.Load(CarsSchema)
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "Phantom", got.Rows[0][ColCarName])
	assert.Equal(t, "Urus", got.Rows[1][ColCarName])
	assert.Equal(t, "", got.Rows[0][ColBrand])
}

func TestSQLiteKeepsExtraColumns(t *testing.T) {
	st, _ := tempSQLite(t)

	tb, err := st.Load(MembersSchema)
	require.NoError(t, err)
	tb.Columns = append(tb.Columns, "Notes")
	tb.Append(Record{ColMemberID: "1", ColMemberName: "Alice", ColCarsBooked: "0", "Notes": "vip"})
	require.NoError(t, st.Save(MembersSchema, tb))

	got, err := st.Load(MembersSchema)
	require.NoError(t, err)
	assert.Contains(t, got.Columns, "Notes")
	assert.Equal(t, "vip", got.Rows[0]["Notes"])
}

func TestSQLiteMigratesMissingColumn(t *testing.T) {
	st, _ := tempSQLite(t)

	_, err := st.db.Exec(`CREATE TABLE "Cars Booked" ("Car Name" TEXT, "M Name" TEXT, "Date of Booking" TEXT, "No. of Days" TEXT, "Total Cost" TEXT)`)
	require.NoError(t, err)
	_, err = st.db.Exec(`INSERT INTO "Cars Booked" VALUES ('Ghost', 'Bob', '2025-01-01', '2', '1800')`)
	require.NoError(t, err)

	tb, err := st.Load(ActiveBookingsSchema)
	require.NoError(t, err)
	require.Len(t, tb.Rows, 1)
	assert.Equal(t, "Ghost", tb.Rows[0][ColCarName])
	assert.Equal(t, "", tb.Rows[0][ColReturnStatus])

	cols, err := st.columns(ActiveBookingsSchema.Name)
	require.NoError(t, err)
	assert.Contains(t, cols, ColReturnStatus)
}

func TestSQLiteBackedLifecycle(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewRentalManager(Config{DataDir: dir, Backend: BackendSQLite, DBFile: "rental.db"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	seedFleet(t, mgr)

	_, err = mgr.BookCar(BookingRequest{CarName: "Model X", MemberName: "Alice", BookingDate: "2025-01-02", Days: 3})
	require.NoError(t, err)
	closure, err := mgr.ReturnCar(ReturnRequest{CarName: "Model X", MemberName: "Alice", ReturnDate: "2025-01-05"}, AlwaysConfirm)
	require.NoError(t, err)
	assert.Equal(t, int64(900), closure.Returned[0].TotalCost)
	assert.Equal(t, int64(0), closure.Counter.Current)

	err = mgr.AddCar(Car{Number: 101, Name: "Other"})
	require.ErrorIs(t, err, ErrDuplicateKey)
}
