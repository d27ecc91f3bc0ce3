package rental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterStoresHash(t *testing.T) {
	mgr, _ := tempManager(t)
	require.NoError(t, mgr.AddUser("admin", "Ann", "Secret1"))

	tb, err := mgr.Table(UsersSchema)
	require.NoError(t, err)
	stored := tb.Rows[0][ColPassword]
	assert.True(t, isBcryptHash(stored), "stored %q", stored)
	assert.NotContains(t, stored, "Secret1")
}

func TestLoginIgnoresCaseAndSpace(t *testing.T) {
	mgr, _ := tempManager(t)
	require.NoError(t, mgr.AddUser("admin", "Ann", "Secret1"))

	cases := []struct {
		id, name, pw string
		ok           bool
	}{
		{"admin", "Ann", "Secret1", true},
		{" ADMIN ", "ann", "secret1 ", true},
		{"admin", "Ann", "wrong", false},
		{"admin", "Bob", "Secret1", false},
		{"root", "Ann", "Secret1", false},
	}
	for _, c := range cases {
		_, err := mgr.Login(c.id, c.name, c.pw)
		if c.ok {
			assert.NoError(t, err, "login(%q,%q,%q)", c.id, c.name, c.pw)
		} else {
			assert.ErrorIs(t, err, ErrInvalidCredentials, "login(%q,%q,%q)", c.id, c.name, c.pw)
		}
	}
}

func TestLoginAcceptsPlaintextRows(t *testing.T) {
	mgr, _ := tempManager(t)
	require.NoError(t, mgr.Users().AppendRecords([]Record{{ColUserID: "u1", ColUserName: "Legacy", ColPassword: "Pass"}}))

	_, err := mgr.Login("U1", "legacy", "pass")
	assert.NoError(t, err)
}

func TestRegisterRejectsDuplicateAndBlank(t *testing.T) {
	mgr, _ := tempManager(t)
	require.NoError(t, mgr.AddUser("admin", "Ann", "pw"))

	assert.ErrorIs(t, mgr.AddUser("admin", "Other", "pw"), ErrDuplicateKey)
	assert.ErrorIs(t, mgr.AddUser("ops", "Ops", "  "), ErrInvalidInput)

	n, err := mgr.DeleteUser("admin")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
