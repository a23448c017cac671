// Package firestore is the Cloud Firestore collection backend. It talks to
// the Firestore REST API. Documents hold string fields plus a numeric
// "amount" in currency units.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/shopspring/decimal"
	fsapi "google.golang.org/api/firestore/v1"
	"google.golang.org/api/option"

	"fundledger/internal/core"
	"fundledger/internal/store"
)

// DefaultDatabase is the id of the database every project starts with.
const DefaultDatabase = "(default)"

// Document field names.
const (
	fieldName              = "name"
	fieldEmail             = "email"
	fieldPhone             = "phone"
	fieldProject           = "project"
	fieldAmount            = "amount"
	fieldTimestamp         = "timestamp"
	fieldStatus            = "status"
	fieldTransactionNumber = "transactionNumber"
	fieldMode              = "mode"
)

// Client owns the API service shared by both collections.
type Client struct {
	svc    *fsapi.Service
	parent string
}

// New creates a client for projectID/database. Pass the auth options built by
// the gcloud package; tests pass an endpoint and HTTP client instead.
func New(ctx context.Context, projectID, database string, opts ...option.ClientOption) (*Client, error) {
	if projectID == "" {
		return nil, errors.New("missing firestore project id")
	}
	if database == "" {
		database = DefaultDatabase
	}
	svc, err := fsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore service: %w", err)
	}
	return &Client{
		svc:    svc,
		parent: fmt.Sprintf("projects/%s/databases/%s/documents", projectID, database),
	}, nil
}

// Collection returns the named collection holding records of kind.
func (c *Client) Collection(name string, kind core.Kind) *Collection {
	return &Collection{docs: c.svc.Projects.Databases.Documents, parent: c.parent, name: name, kind: kind}
}

type Collection struct {
	docs   *fsapi.ProjectsDatabasesDocumentsService
	parent string
	name   string
	kind   core.Kind
}

var _ store.Collection = (*Collection)(nil)

// Append creates a document with a server-generated id.
func (c *Collection) Append(ctx context.Context, t core.Transaction) (string, error) {
	if err := store.CheckKind(t, c.kind); err != nil {
		return "", err
	}
	if err := t.Validate(); err != nil {
		return "", err
	}

	created, err := c.docs.CreateDocument(c.parent, c.name, toDocument(t)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create document in %s: %w", c.name, err)
	}
	id := path.Base(created.Name)

	slog.InfoContext(ctx, "Transaction saved to Firestore",
		"id", id,
		"collection", c.name,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents)

	return id, nil
}

// QueryRecent lists documents ordered by timestamp descending, following
// page tokens until limit documents were read (or all of them for limit <= 0).
func (c *Collection) QueryRecent(ctx context.Context, limit int) ([]core.Transaction, error) {
	call := c.docs.List(c.parent, c.name).OrderBy(fieldTimestamp + " desc")
	if limit > 0 {
		call = call.PageSize(int64(limit))
	}

	var out []core.Transaction
	for {
		resp, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", c.name, err)
		}
		for _, d := range resp.Documents {
			out = append(out, fromDocument(d, c.kind))
		}
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		if resp.NextPageToken == "" {
			return out, nil
		}
		call = call.PageToken(resp.NextPageToken)
	}
}

func toDocument(t core.Transaction) *fsapi.Document {
	fields := map[string]fsapi.Value{
		fieldName:      stringValue(t.Name),
		fieldEmail:     stringValue(t.Email),
		fieldPhone:     stringValue(t.Phone),
		fieldProject:   stringValue(t.Project),
		fieldAmount:    doubleValue(decimal.New(t.Amount.Cents, -2).InexactFloat64()),
		fieldTimestamp: stringValue(t.Timestamp),
	}
	switch t.Kind {
	case core.Inflow:
		fields[fieldStatus] = stringValue(t.Status)
	case core.Outflow:
		fields[fieldTransactionNumber] = stringValue(t.TransactionNumber)
		fields[fieldMode] = stringValue(string(t.Mode))
	}
	return &fsapi.Document{Fields: fields}
}

func fromDocument(d *fsapi.Document, kind core.Kind) core.Transaction {
	return core.Transaction{
		ID:                path.Base(d.Name),
		Kind:              kind,
		Name:              stringField(d, fieldName),
		Email:             stringField(d, fieldEmail),
		Phone:             stringField(d, fieldPhone),
		Project:           stringField(d, fieldProject),
		Amount:            amountField(d),
		Timestamp:         stringField(d, fieldTimestamp),
		Status:            stringField(d, fieldStatus),
		TransactionNumber: stringField(d, fieldTransactionNumber),
		Mode:              core.PaymentMode(stringField(d, fieldMode)),
	}
}

func stringField(d *fsapi.Document, key string) string {
	return d.Fields[key].StringValue
}

// amountField accepts the integer, double and string encodings that
// different writers have used for the amount. The decoded Value cannot tell
// a zero from an absent field, and a zero in any encoding is zero cents.
func amountField(d *fsapi.Document) core.Money {
	v := d.Fields[fieldAmount]
	switch {
	case v.IntegerValue != 0:
		return core.Money{Cents: v.IntegerValue * 100}
	case v.DoubleValue != 0:
		return core.Money{Cents: decimal.NewFromFloat(v.DoubleValue).Shift(2).Round(0).IntPart()}
	case v.StringValue != "":
		cents, err := core.ParseDecimalToCents(v.StringValue)
		if err != nil {
			return core.Money{}
		}
		return core.Money{Cents: cents}
	default:
		return core.Money{}
	}
}

// Value fields are omitempty, so zeros must be forced onto the wire or
// Firestore receives an empty value and rejects the document.
func stringValue(s string) fsapi.Value {
	return fsapi.Value{StringValue: s, ForceSendFields: []string{"StringValue"}}
}

func doubleValue(f float64) fsapi.Value {
	return fsapi.Value{DoubleValue: f, ForceSendFields: []string{"DoubleValue"}}
}
