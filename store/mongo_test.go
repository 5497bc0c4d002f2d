package store

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

func TestOrganisationDocRoundTrip(t *testing.T) {
	id := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.M{
		"_id":        id,
		"name":       "Acme",
		"payDay":     25,
		"isDeleted":  false,
		"isApproved": true,
		"admins":     bson.A{primitive.NewObjectID()},
		"wallet": bson.M{
			"walletSetId": "set-1",
			"addresses":   bson.M{"SOL-DEVNET": "sol-addr", "BASE-SEPOLIA": "0xbase"},
			"walletIds":   bson.M{"SOL-DEVNET": "w-sol", "BASE-SEPOLIA": "w-base"},
			"balances":    bson.M{"SOL-DEVNET": "10.0000"},
		},
	})
	require.NoError(t, err)

	var doc organisationDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))
	org := doc.toOrganisation()

	require.Equal(t, id.Hex(), org.ID)
	require.Equal(t, "Acme", org.Name)
	require.Equal(t, 25, org.PayDay)
	require.True(t, org.IsApproved)
	require.True(t, org.Treasury.Provisioned())
	require.Equal(t, id.Hex(), org.Treasury.OrganisationID)
	require.Equal(t, "0xbase", org.Treasury.Address("BASE-SEPOLIA"))
	require.Equal(t, "w-sol", org.Treasury.WalletID("SOL-DEVNET"))
	require.Equal(t, "10.0000", org.Treasury.Balances["SOL-DEVNET"])
}

func TestOrganisationWithoutTreasury(t *testing.T) {
	org := organisationDoc{ID: primitive.NewObjectID(), Name: "New Co"}.toOrganisation()
	require.Nil(t, org.Treasury)
	require.False(t, org.Treasury.Provisioned())
}

func TestUserDocToEmployee(t *testing.T) {
	id := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.M{
		"_id":           id,
		"org":           primitive.NewObjectID(),
		"username":      "ada",
		"fullname":      "Ada Obi",
		"role":          bson.A{"EMPLOYEE", "ADMIN"},
		"salary":        "120.50",
		"isSuspended":   false,
		"walletAmount":  "0",
		"walletAddress": "0x0000000000000000000000000000000000000001",
		"chain":         "BASE-SEPOLIA",
		"walletId":      "w-1",
	})
	require.NoError(t, err)

	var doc userDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))
	e := doc.toEmployee()

	require.Equal(t, id.Hex(), e.ID)
	require.Equal(t, "ada", e.Username)
	require.Equal(t, "Ada Obi", e.FullName)
	require.Equal(t, "120.50", e.Salary)
	require.True(t, e.IsAdmin())
	require.NotNil(t, e.Wallet)
	require.Equal(t, id.Hex(), e.Wallet.EmployeeID)
	require.Equal(t, "BASE-SEPOLIA", e.Wallet.Chain)
	require.Equal(t, "w-1", e.Wallet.ProviderWalletID)
}

func TestUserWithoutWallet(t *testing.T) {
	e := userDoc{ID: primitive.NewObjectID(), Username: "bo", Role: []string{"EMPLOYEE"}}.toEmployee()
	require.Nil(t, e.Wallet)
	require.False(t, e.IsAdmin())
}

func TestObjectID(t *testing.T) {
	id := primitive.NewObjectID()
	got, err := objectID(id.Hex())
	require.NoError(t, err)
	require.Equal(t, id, got)

	_, err = objectID("not-an-id")
	require.ErrorIs(t, err, ErrInvalidID)
}

func TestCreditAmount(t *testing.T) {
	next, err := creditAmount("", decimal.RequireFromString("80"))
	require.NoError(t, err)
	require.Equal(t, "80.0000", next)

	next, err = creditAmount("12.5", decimal.RequireFromString("0.25"))
	require.NoError(t, err)
	require.Equal(t, "12.7500", next)

	_, err = creditAmount("abc", decimal.NewFromInt(1))
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestBalancesUpdate(t *testing.T) {
	set := balancesUpdate(map[string]string{"SOL-DEVNET": "1.0000", "BASE-SEPOLIA": "2.0000"})
	require.Equal(t, bson.M{
		"wallet.balances.SOL-DEVNET":   "1.0000",
		"wallet.balances.BASE-SEPOLIA": "2.0000",
	}, set)
}

func TestFilters(t *testing.T) {
	require.Equal(t, true, payableOrganisationsFilter()["isApproved"])

	org := primitive.NewObjectID()
	f := activeEmployeesFilter(org)
	require.Equal(t, org, f["org"])
	require.Equal(t, bson.M{"$ne": true}, f["isSuspended"])
}

func TestEmployeeWalletUpdate(t *testing.T) {
	set := employeeWalletUpdate(&types.EmployeeWallet{Address: "addr", Chain: "SOL-DEVNET", ProviderWalletID: "w"})
	require.Equal(t, "addr", set["walletAddress"])
	require.Equal(t, "SOL-DEVNET", set["chain"])
	require.Equal(t, "w", set["walletId"])
}
