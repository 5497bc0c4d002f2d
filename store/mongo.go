package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

const (
	organisationsCollection = "organisations"
	usersCollection         = "users"

	connectTimeout = 10 * time.Second
	// attempts at crediting a wallet amount that changed underneath us
	creditRetries = 3
)

var (
	ErrInvalidID    = errors.New("invalid object id")
	errStaleBalance = errors.New("wallet amount changed during update")
)

// Mongo is the organisation and employee directory backed by MongoDB.
type Mongo struct {
	client        *mongo.Client
	organisations *mongo.Collection
	users         *mongo.Collection
}

// Connect dials the configured deployment and verifies the primary is reachable.
func Connect(ctx context.Context, cfg types.MongoSettings) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is not configured")
	}
	if cfg.Database == "" {
		return nil, errors.New("mongo database is not configured")
	}

	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mongo: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("unable to ping mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	return &Mongo{
		client:        client,
		organisations: db.Collection(organisationsCollection),
		users:         db.Collection(usersCollection),
	}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ListPayableOrganisations returns approved organisations that have not been deleted.
func (m *Mongo) ListPayableOrganisations(ctx context.Context) ([]types.Organisation, error) {
	cur, err := m.organisations.Find(ctx, payableOrganisationsFilter(), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing organisations: %w", err)
	}
	var docs []organisationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding organisations: %w", err)
	}

	orgs := make([]types.Organisation, 0, len(docs))
	for _, doc := range docs {
		orgs = append(orgs, doc.toOrganisation())
	}
	return orgs, nil
}

func (m *Mongo) GetOrganisation(ctx context.Context, id string) (*types.Organisation, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc organisationDoc
	err = m.organisations.FindOne(ctx, bson.M{"_id": oid, "isDeleted": bson.M{"$ne": true}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: organisation %s", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading organisation %s: %w", id, err)
	}
	org := doc.toOrganisation()
	return &org, nil
}

// ListActiveEmployees returns the organisation's unsuspended members in creation order.
func (m *Mongo) ListActiveEmployees(ctx context.Context, orgID string) ([]types.Employee, error) {
	oid, err := objectID(orgID)
	if err != nil {
		return nil, err
	}
	cur, err := m.users.Find(ctx, activeEmployeesFilter(oid), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing employees of %s: %w", orgID, err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding employees of %s: %w", orgID, err)
	}

	employees := make([]types.Employee, 0, len(docs))
	for _, doc := range docs {
		employees = append(employees, doc.toEmployee())
	}
	return employees, nil
}

// RecordDisbursement credits the disbursed amount to the employee's wallet amount.
// The update is conditional on the amount read so concurrent credits are not lost.
func (m *Mongo) RecordDisbursement(ctx context.Context, orgID string, d types.Disbursement) error {
	org, err := objectID(orgID)
	if err != nil {
		return err
	}
	emp, err := objectID(d.EmployeeID)
	if err != nil {
		return err
	}

	credit := func() error {
		var doc userDoc
		err := m.users.FindOne(ctx, bson.M{"_id": emp, "org": org}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return backoff.Permanent(fmt.Errorf("%w: employee %s of %s", types.ErrNotFound, d.EmployeeID, orgID))
		}
		if err != nil {
			return err
		}

		next, err := creditAmount(doc.WalletAmount, d.Amount)
		if err != nil {
			return backoff.Permanent(err)
		}

		res, err := m.users.UpdateOne(ctx,
			bson.M{"_id": emp, "walletAmount": doc.WalletAmount},
			bson.M{"$set": bson.M{"walletAmount": next}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return errStaleBalance
		}
		return nil
	}

	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(50*time.Millisecond), creditRetries)
	if err := backoff.Retry(credit, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("error recording disbursement to %s: %w", d.EmployeeID, err)
	}
	return nil
}

// UpdateTreasuryBalances stores the display balances of the organisation's treasury.
func (m *Mongo) UpdateTreasuryBalances(ctx context.Context, orgID string, balances map[string]string) error {
	if len(balances) == 0 {
		return nil
	}
	oid, err := objectID(orgID)
	if err != nil {
		return err
	}
	res, err := m.organisations.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": balancesUpdate(balances)})
	if err != nil {
		return fmt.Errorf("error updating treasury balances of %s: %w", orgID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: organisation %s", types.ErrNotFound, orgID)
	}
	return nil
}

func (m *Mongo) SaveTreasuryWallet(ctx context.Context, orgID string, wallet *types.TreasuryWallet) error {
	oid, err := objectID(orgID)
	if err != nil {
		return err
	}
	res, err := m.organisations.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"wallet": wallet}})
	if err != nil {
		return fmt.Errorf("error saving treasury of %s: %w", orgID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: organisation %s", types.ErrNotFound, orgID)
	}
	return nil
}

func (m *Mongo) SaveEmployeeWallet(ctx context.Context, employeeID string, wallet *types.EmployeeWallet) error {
	oid, err := objectID(employeeID)
	if err != nil {
		return err
	}
	res, err := m.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": employeeWalletUpdate(wallet)})
	if err != nil {
		return fmt.Errorf("error saving wallet of %s: %w", employeeID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: employee %s", types.ErrNotFound, employeeID)
	}
	return nil
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %w: %q", types.ErrNotFound, ErrInvalidID, id)
	}
	return oid, nil
}

func payableOrganisationsFilter() bson.M {
	return bson.M{
		"isDeleted":  bson.M{"$ne": true},
		"isApproved": true,
	}
}

func activeEmployeesFilter(org primitive.ObjectID) bson.M {
	return bson.M{
		"org":         org,
		"isDeleted":   bson.M{"$ne": true},
		"isSuspended": bson.M{"$ne": true},
	}
}

func balancesUpdate(balances map[string]string) bson.M {
	set := make(bson.M, len(balances))
	for chain, balance := range balances {
		set["wallet.balances."+chain] = balance
	}
	return set
}

func employeeWalletUpdate(wallet *types.EmployeeWallet) bson.M {
	return bson.M{
		"walletAddress": wallet.Address,
		"chain":         wallet.Chain,
		"walletId":      wallet.ProviderWalletID,
	}
}

// creditAmount adds amount to a stored wallet amount. An empty amount is zero.
func creditAmount(current string, amount decimal.Decimal) (string, error) {
	have, err := types.ParseAmount(current)
	if err != nil {
		return "", err
	}
	return types.FormatAmount(have.Add(amount)), nil
}
