package rental

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVMissingFileCreatesHeader(t *testing.T) {
	st, dir := tempCSV(t)

	tb, err := st.Load(CarsSchema)
	require.NoError(t, err)
	assert.Empty(t, tb.Rows)
	assert.Equal(t, "Car No.,Car Name,Brand,Branch,Fuel Type,Cost,Category\n", readFile(t, filepath.Join(dir, "Cars.csv")))
}

func TestCSVRoundTripPreservesOrderAndExtras(t *testing.T) {
	st, dir := tempCSV(t)
	path := filepath.Join(dir, "Members.csv")
	content := "MID,M Name,Phone No.,No. of cars Booked,Notes\n2,Bob,555,0,vip\n1,\"Alice, Jr\",556,1,\n"
	writeFile(t, path, content)

	tb, err := st.Load(MembersSchema)
	require.NoError(t, err)
	require.Len(t, tb.Rows, 2)
	assert.Equal(t, "Bob", tb.Rows[0][ColMemberName])
	assert.Equal(t, "Alice, Jr", tb.Rows[1][ColMemberName])
	assert.Equal(t, "vip", tb.Rows[0]["Notes"])

	require.NoError(t, st.Save(MembersSchema, tb))
	assert.Equal(t, content, readFile(t, path))
}

func TestCSVSynthesizesMissingColumn(t *testing.T) {
	st, dir := tempCSV(t)
	writeFile(t, filepath.Join(dir, "Cars Booked.csv"), "Car Name,M Name,Date of Booking,No. of Days,Total Cost\nGhost,Bob,2025-01-01,2,1800\n")

	tb, err := st.Load(ActiveBookingsSchema)
	require.NoError(t, err)
	assert.Equal(t, ActiveBookingsSchema.ColumnNames(), tb.Columns)
	v, ok := tb.Rows[0][ColReturnStatus]
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestCSVColumnsReorderedOnLoad(t *testing.T) {
	st, dir := tempCSV(t)
	writeFile(t, filepath.Join(dir, "Users.csv"), "Password,User ID,User Name\npw,u1,Ann\n")

	tb, err := st.Load(UsersSchema)
	require.NoError(t, err)
	assert.Equal(t, ColUserID, tb.Columns[0])
	assert.Equal(t, "u1", tb.Rows[0][ColUserID])
	assert.Equal(t, "pw", tb.Rows[0][ColPassword])
}

func TestCSVKeepsCellsPastHeader(t *testing.T) {
	st, dir := tempCSV(t)
	path := filepath.Join(dir, "Cars.csv")
	writeFile(t, path, "Car No.,Car Name,Brand,Branch,Fuel Type,Cost,Category\n1,Ghost,Rolls-Royce,Mumbai,Petrol,900,Sedan,EXTRA\n")

	tb, err := st.Load(CarsSchema)
	require.NoError(t, err)
	assert.Equal(t, "EXTRA", tb.Rows[0]["Column 8"])

	require.NoError(t, st.Save(CarsSchema, tb))
	assert.Equal(t,
		"Car No.,Car Name,Brand,Branch,Fuel Type,Cost,Category,Column 8\n1,Ghost,Rolls-Royce,Mumbai,Petrol,900,Sedan,EXTRA\n",
		readFile(t, path))
}

func TestCSVResetsEmptyOrBlankHeader(t *testing.T) {
	for name, content := range map[string]string{
		"empty file":   "",
		"blank header": ",,\n",
		"spaces only":  " , \n1,2\n",
	} {
		t.Run(name, func(t *testing.T) {
			st, dir := tempCSV(t)
			path := filepath.Join(dir, "Users.csv")
			writeFile(t, path, content)

			tb, err := st.Load(UsersSchema)
			require.NoError(t, err)
			assert.Empty(t, tb.Rows)
			assert.Equal(t, "User ID,User Name,Password\n", readFile(t, path))
			assert.NoFileExists(t, path+".corrupt")
		})
	}
}

func TestCSVCorruptFileMovedAside(t *testing.T) {
	st, dir := tempCSV(t)
	path := filepath.Join(dir, "Cars.csv")
	corrupt := "Car No.,Car Name\n1,\"unterminated\n"
	writeFile(t, path, corrupt)

	tb, err := st.Load(CarsSchema)
	require.NoError(t, err)
	assert.Empty(t, tb.Rows)
	assert.Equal(t, corrupt, readFile(t, path+".corrupt"))
}

func TestCSVStripsByteOrderMark(t *testing.T) {
	st, dir := tempCSV(t)
	writeFile(t, filepath.Join(dir, "Users.csv"), "\ufeffUser ID,User Name,Password\nu1,Ann,pw\n")

	tb, err := st.Load(UsersSchema)
	require.NoError(t, err)
	assert.Equal(t, "u1", tb.Rows[0][ColUserID])
}

func TestCSVSaveKeepsFileMode(t *testing.T) {
	st, dir := tempCSV(t)
	path := filepath.Join(dir, "Cars.csv")

	tb, err := st.Load(CarsSchema)
	require.NoError(t, err)
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm())

	require.NoError(t, os.Chmod(path, 0o664))
	tb.Append(Record{ColCarNumber: "1", ColCarName: "Ghost", ColCost: "900"})
	require.NoError(t, st.Save(CarsSchema, tb))

	fi, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o664), fi.Mode().Perm())
}

func TestCSVSaveLeavesNoTempFiles(t *testing.T) {
	st, dir := tempCSV(t)
	require.NoError(t, EnsureTables(st))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Len(t, names, len(AllSchemas), "files: %v", names)
}

func TestNormalizeCountsNonIntegerCells(t *testing.T) {
	header := CarsSchema.ColumnNames()
	raw := [][]string{
		{"1", "Ghost", "", "", "", "900", ""},
		{"x", "Broken", "", "", "", "n/a", ""},
		{" 3 ", "Urus", "", "", "", "", ""},
	}
	tb, report := normalize(CarsSchema, header, raw)
	require.Len(t, tb.Rows, 3)
	assert.Equal(t, map[string]int{ColCarNumber: 1, ColCost: 2}, report.invalid)
	assert.Empty(t, report.missing)
	assert.Empty(t, report.unnamed)
}

func TestKindEqual(t *testing.T) {
	assert.True(t, KindInt.Equal("007", "7"))
	assert.True(t, KindInt.Equal(" 7", "7"))
	assert.False(t, KindInt.Equal("7", "8"))
	assert.True(t, KindInt.Equal("n/a", "n/a"))
	assert.False(t, KindString.Equal("Ghost", "ghost"))
	assert.False(t, KindInt.Valid("2.5"))
	assert.True(t, KindString.Valid("anything"))
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	_, err := OpenStore(Config{DataDir: t.TempDir(), Backend: "xml"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
