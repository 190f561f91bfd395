package remote

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trading-journal-go/internal/models"
)

// Value is a typed document field. Exactly one member is set.
type Value struct {
	StringValue    *string  `json:"stringValue,omitempty"`
	TimestampValue *string  `json:"timestampValue,omitempty"`
	DoubleValue    *float64 `json:"doubleValue,omitempty"`
	IntegerValue   *string  `json:"integerValue,omitempty"`
	NullValue      *string  `json:"nullValue,omitempty"`
}

// Document is a stored document. Name is the full resource path.
type Document struct {
	Name       string           `json:"name,omitempty"`
	Fields     map[string]Value `json:"fields"`
	CreateTime string           `json:"createTime,omitempty"`
	UpdateTime string           `json:"updateTime,omitempty"`
}

// ID is the last segment of the resource name.
func (d Document) ID() string {
	if i := strings.LastIndex(d.Name, "/"); i >= 0 {
		return d.Name[i+1:]
	}
	return d.Name
}

type listDocumentsResponse struct {
	Documents     []Document `json:"documents"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}

// StructuredQuery is the subset of the query language the backend needs.
type StructuredQuery struct {
	From    []CollectionSelector `json:"from"`
	Where   *Filter              `json:"where,omitempty"`
	OrderBy []Order              `json:"orderBy,omitempty"`
}

type CollectionSelector struct {
	CollectionID string `json:"collectionId"`
}

type Filter struct {
	FieldFilter *FieldFilter `json:"fieldFilter,omitempty"`
}

type FieldFilter struct {
	Field FieldReference `json:"field"`
	Op    string         `json:"op"`
	Value Value          `json:"value"`
}

type FieldReference struct {
	FieldPath string `json:"fieldPath"`
}

type Order struct {
	Field     FieldReference `json:"field"`
	Direction string         `json:"direction"`
}

type runQueryRequest struct {
	StructuredQuery StructuredQuery `json:"structuredQuery"`
}

type runQueryResponse struct {
	Document *Document `json:"document,omitempty"`
	ReadTime string    `json:"readTime,omitempty"`
}

// EqualityQuery selects documents of collection whose field equals value,
// ordered by orderField descending.
func EqualityQuery(collection, field string, value Value, orderField string) StructuredQuery {
	return StructuredQuery{
		From: []CollectionSelector{{CollectionID: collection}},
		Where: &Filter{FieldFilter: &FieldFilter{
			Field: FieldReference{FieldPath: field},
			Op:    "EQUAL",
			Value: value,
		}},
		OrderBy: []Order{{Field: FieldReference{FieldPath: orderField}, Direction: "DESCENDING"}},
	}
}

func StringValue(s string) Value {
	return Value{StringValue: &s}
}

func TimestampValue(t time.Time) Value {
	s := t.UTC().Format(time.RFC3339Nano)
	return Value{TimestampValue: &s}
}

// DecimalValue keeps money exact by storing its string form.
func DecimalValue(d decimal.Decimal) Value {
	return StringValue(d.String())
}

func fieldString(fields map[string]Value, name string) string {
	v, ok := fields[name]
	if !ok || v.StringValue == nil {
		return ""
	}
	return *v.StringValue
}

func fieldTime(fields map[string]Value, name string) (time.Time, error) {
	v, ok := fields[name]
	if !ok || v.TimestampValue == nil {
		return time.Time{}, fmt.Errorf("field %s: missing timestamp", name)
	}
	t, err := time.Parse(time.RFC3339Nano, *v.TimestampValue)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %s: %w", name, err)
	}
	return t.UTC(), nil
}

func fieldDecimal(fields map[string]Value, name string) (decimal.Decimal, error) {
	v, ok := fields[name]
	if !ok {
		return decimal.Zero, fmt.Errorf("field %s: missing number", name)
	}
	switch {
	case v.StringValue != nil:
		return decimal.NewFromString(*v.StringValue)
	case v.DoubleValue != nil:
		return decimal.NewFromFloat(*v.DoubleValue), nil
	case v.IntegerValue != nil:
		return decimal.NewFromString(*v.IntegerValue)
	}
	return decimal.Zero, fmt.Errorf("field %s: not a number", name)
}

func accountFields(a models.TradingAccount) map[string]Value {
	return map[string]Value{
		"name":           StringValue(a.Name),
		"initialBalance": DecimalValue(a.InitialBalance),
		"currentBalance": DecimalValue(a.CurrentBalance),
		"currency":       StringValue(a.Currency),
		"createdAt":      TimestampValue(a.CreatedAt),
		"updatedAt":      TimestampValue(a.UpdatedAt),
	}
}

func decodeAccount(doc Document) (models.TradingAccount, error) {
	a := models.TradingAccount{
		ID:       doc.ID(),
		Name:     fieldString(doc.Fields, "name"),
		Currency: fieldString(doc.Fields, "currency"),
	}
	var err error
	if a.InitialBalance, err = fieldDecimal(doc.Fields, "initialBalance"); err != nil {
		return a, err
	}
	if a.CurrentBalance, err = fieldDecimal(doc.Fields, "currentBalance"); err != nil {
		return a, err
	}
	if a.CreatedAt, err = fieldTime(doc.Fields, "createdAt"); err != nil {
		return a, err
	}
	if a.UpdatedAt, err = fieldTime(doc.Fields, "updatedAt"); err != nil {
		return a, err
	}
	return a, nil
}

func entryFields(e models.DailyEntry) map[string]Value {
	return map[string]Value{
		"accountId":  StringValue(e.AccountID),
		"date":       TimestampValue(e.Date),
		"profitLoss": DecimalValue(e.ProfitLoss),
		"balance":    DecimalValue(e.Balance),
		"notes":      StringValue(e.Notes),
		"createdAt":  TimestampValue(e.CreatedAt),
		"updatedAt":  TimestampValue(e.UpdatedAt),
	}
}

func decodeEntry(doc Document) (models.DailyEntry, error) {
	e := models.DailyEntry{
		ID:        doc.ID(),
		AccountID: fieldString(doc.Fields, "accountId"),
		Notes:     fieldString(doc.Fields, "notes"),
	}
	var err error
	if e.Date, err = fieldTime(doc.Fields, "date"); err != nil {
		return e, err
	}
	if e.ProfitLoss, err = fieldDecimal(doc.Fields, "profitLoss"); err != nil {
		return e, err
	}
	if e.Balance, err = fieldDecimal(doc.Fields, "balance"); err != nil {
		return e, err
	}
	if e.CreatedAt, err = fieldTime(doc.Fields, "createdAt"); err != nil {
		return e, err
	}
	if e.UpdatedAt, err = fieldTime(doc.Fields, "updatedAt"); err != nil {
		return e, err
	}
	return e, nil
}
