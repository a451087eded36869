package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/quickbites/orderflow/internal/aws"
)

const batchWriteMax = 25

// Filter selects rows by column equality or inclusion.
type Filter struct {
	Column string
	Equals interface{}
	In     []interface{}
}

// Eq builds an equality filter.
func Eq(column string, value interface{}) Filter {
	return Filter{Column: column, Equals: value}
}

// In builds an inclusion filter.
func In(column string, values ...interface{}) Filter {
	return Filter{Column: column, In: values}
}

// Ordering sorts the fetched rows by a single column.
type Ordering struct {
	Column     string
	Descending bool
}

// Query combines filters with an optional ordering.
type Query struct {
	Filters []Filter
	Order   *Ordering
}

// Match identifies the rows a write applies to by column equality.
type Match struct {
	Column string
	Value  interface{}
}

// Gateway is the uniform request/response wrapper around remote table
// reads and writes. Every call is a single round-trip; there are no
// retries, so failures propagate immediately to the caller.
type Gateway struct {
	db      aws.DynamoDBAPI
	tables  TableNames
	nowFunc func() time.Time
}

// New creates a Gateway bound to the backend tables.
func New(db aws.DynamoDBAPI, tables TableNames) *Gateway {
	return &Gateway{db: db, tables: tables, nowFunc: time.Now}
}

// Fetch reads rows matching the query into out, which must be a pointer to
// a slice of structs. Ordering is applied to the fetched result set.
func (g *Gateway) Fetch(ctx context.Context, kind Kind, q Query, out interface{}) error {
	table := g.tables.name(kind)
	sch := schemas[kind]

	// key-equality reads go through GetItem
	if len(q.Filters) == 1 && q.Filters[0].Equals != nil && q.Filters[0].Column == sch.Key {
		return g.fetchByKey(ctx, table, sch.Key, q.Filters[0].Equals, out)
	}

	input := &dyn.ScanInput{TableName: &table}
	if len(q.Filters) > 0 {
		expr, names, values, err := buildFilter(q.Filters)
		if err != nil {
			return remoteErr("fetch", table, err.Error())
		}
		input.FilterExpression = &expr
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}

	var items []map[string]types.AttributeValue
	for {
		res, err := g.db.Scan(ctx, input)
		if err != nil {
			return wrapRemote("fetch", table, err)
		}
		items = append(items, res.Items...)
		if len(res.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = res.LastEvaluatedKey
	}

	if q.Order != nil {
		sortItems(items, q.Order)
	}

	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return remoteErr("fetch", table, fmt.Sprintf("unmarshal rows: %v", err))
	}
	return nil
}

func (g *Gateway) fetchByKey(ctx context.Context, table, keyCol string, value, out interface{}) error {
	av, err := attributevalue.Marshal(value)
	if err != nil {
		return remoteErr("fetch", table, fmt.Sprintf("marshal key: %v", err))
	}
	res, err := g.db.GetItem(ctx, &dyn.GetItemInput{
		TableName: &table,
		Key:       map[string]types.AttributeValue{keyCol: av},
	})
	if err != nil {
		return wrapRemote("fetch", table, err)
	}
	items := []map[string]types.AttributeValue{}
	if len(res.Item) > 0 {
		items = append(items, res.Item)
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return remoteErr("fetch", table, fmt.Sprintf("unmarshal row: %v", err))
	}
	return nil
}

// Insert writes one row and decodes the stored row into out when out is
// non-nil. The row id is generated here when the payload carries none.
func (g *Gateway) Insert(ctx context.Context, kind Kind, payload, out interface{}) error {
	table := g.tables.name(kind)
	sch := schemas[kind]

	item, rerr := g.prepareRow(table, sch, payload)
	if rerr != nil {
		return rerr
	}

	cond := fmt.Sprintf("attribute_not_exists(%s)", sch.Key)
	_, err := g.db.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &table,
		Item:                item,
		ConditionExpression: &cond,
	})
	if err != nil {
		return wrapRemote("insert", table, err)
	}

	if out != nil {
		if err := attributevalue.UnmarshalMap(item, out); err != nil {
			return remoteErr("insert", table, fmt.Sprintf("unmarshal row: %v", err))
		}
	}
	return nil
}

// InsertMany writes rows in bulk. On error no assumption of partial
// success can be made.
func (g *Gateway) InsertMany(ctx context.Context, kind Kind, payloads []interface{}) error {
	table := g.tables.name(kind)
	sch := schemas[kind]

	requests := make([]types.WriteRequest, 0, len(payloads))
	for _, p := range payloads {
		item, rerr := g.prepareRow(table, sch, p)
		if rerr != nil {
			return rerr
		}
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	for start := 0; start < len(requests); start += batchWriteMax {
		end := start + batchWriteMax
		if end > len(requests) {
			end = len(requests)
		}
		res, err := g.db.BatchWriteItem(ctx, &dyn.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{table: requests[start:end]},
		})
		if err != nil {
			return wrapRemote("insert", table, err)
		}
		if n := len(res.UnprocessedItems[table]); n > 0 {
			return remoteErr("insert", table, fmt.Sprintf("%d rows were not written", n))
		}
	}
	return nil
}

// Update applies fields to the row matching match and decodes the updated
// row into out when out is non-nil. Updating a missing row is an error.
func (g *Gateway) Update(ctx context.Context, kind Kind, match Match, fields map[string]interface{}, out interface{}) error {
	table := g.tables.name(kind)

	keyAV, err := attributevalue.Marshal(match.Value)
	if err != nil {
		return remoteErr("update", table, fmt.Sprintf("marshal key: %v", err))
	}

	names := map[string]string{"#k": match.Column}
	values := map[string]types.AttributeValue{}
	sets := make([]string, 0, len(fields))
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for i, col := range cols {
		av, err := attributevalue.Marshal(fields[col])
		if err != nil {
			return remoteErr("update", table, fmt.Sprintf("marshal column %s: %v", col, err))
		}
		n := fmt.Sprintf("#u%d", i)
		v := fmt.Sprintf(":u%d", i)
		names[n] = col
		values[v] = av
		sets = append(sets, n+" = "+v)
	}
	updateExpr := "SET " + strings.Join(sets, ", ")
	cond := "attribute_exists(#k)"

	res, err := g.db.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &table,
		Key:                       map[string]types.AttributeValue{match.Column: keyAV},
		UpdateExpression:          &updateExpr,
		ConditionExpression:       &cond,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return remoteErr("update", table, fmt.Sprintf("no row matches %s=%v", match.Column, match.Value))
		}
		return wrapRemote("update", table, err)
	}

	if out != nil {
		if err := attributevalue.UnmarshalMap(res.Attributes, out); err != nil {
			return remoteErr("update", table, fmt.Sprintf("unmarshal row: %v", err))
		}
	}
	return nil
}

// Delete removes the row matching match. Deleting a missing row is an error.
func (g *Gateway) Delete(ctx context.Context, kind Kind, match Match) error {
	table := g.tables.name(kind)

	keyAV, err := attributevalue.Marshal(match.Value)
	if err != nil {
		return remoteErr("delete", table, fmt.Sprintf("marshal key: %v", err))
	}
	names := map[string]string{"#k": match.Column}
	cond := "attribute_exists(#k)"

	_, err = g.db.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName:                &table,
		Key:                      map[string]types.AttributeValue{match.Column: keyAV},
		ConditionExpression:      &cond,
		ExpressionAttributeNames: names,
	})
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return remoteErr("delete", table, fmt.Sprintf("no row matches %s=%v", match.Column, match.Value))
		}
		return wrapRemote("delete", table, err)
	}
	return nil
}

// prepareRow marshals and validates a payload, assigning the generated id
// and creation timestamp the backend schema expects.
func (g *Gateway) prepareRow(table string, sch tableSchema, payload interface{}) (map[string]types.AttributeValue, *RemoteError) {
	item, err := attributevalue.MarshalMap(payload)
	if err != nil {
		return nil, remoteErr("insert", table, fmt.Sprintf("marshal row: %v", err))
	}
	if rerr := validateRow("insert", table, sch, item); rerr != nil {
		return nil, rerr
	}
	if sch.AutoID && isEmpty(item[sch.Key]) {
		item[sch.Key] = &types.AttributeValueMemberS{Value: uuid.NewString()}
	}
	if sch.Timestamped && isZeroTime(item["created_at"]) {
		now := g.nowFunc().UTC().Format(time.RFC3339Nano)
		item["created_at"] = &types.AttributeValueMemberS{Value: now}
	}
	return item, nil
}

func isEmpty(av types.AttributeValue) bool {
	if av == nil {
		return true
	}
	switch v := av.(type) {
	case *types.AttributeValueMemberNULL:
		return true
	case *types.AttributeValueMemberS:
		return v.Value == ""
	}
	return false
}

func isZeroTime(av types.AttributeValue) bool {
	if isEmpty(av) {
		return true
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return false
	}
	return strings.HasPrefix(s.Value, "0001-01-01T")
}

func buildFilter(filters []Filter) (string, map[string]string, map[string]types.AttributeValue, error) {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	clauses := make([]string, 0, len(filters))

	for i, f := range filters {
		n := fmt.Sprintf("#f%d", i)
		names[n] = f.Column
		switch {
		case f.Equals != nil:
			av, err := attributevalue.Marshal(f.Equals)
			if err != nil {
				return "", nil, nil, fmt.Errorf("marshal filter %s: %w", f.Column, err)
			}
			v := fmt.Sprintf(":f%d", i)
			values[v] = av
			clauses = append(clauses, n+" = "+v)
		case len(f.In) > 0:
			placeholders := make([]string, 0, len(f.In))
			for j, candidate := range f.In {
				av, err := attributevalue.Marshal(candidate)
				if err != nil {
					return "", nil, nil, fmt.Errorf("marshal filter %s: %w", f.Column, err)
				}
				v := fmt.Sprintf(":f%d_%d", i, j)
				values[v] = av
				placeholders = append(placeholders, v)
			}
			clauses = append(clauses, n+" IN ("+strings.Join(placeholders, ", ")+")")
		default:
			return "", nil, nil, fmt.Errorf("filter %s has neither equality nor inclusion", f.Column)
		}
	}
	return strings.Join(clauses, " AND "), names, values, nil
}

// sortItems orders raw rows by a single column, comparing numbers
// numerically and everything else lexically. Rows lacking the column
// sort last.
func sortItems(items []map[string]types.AttributeValue, ord *Ordering) {
	less := func(a, b map[string]types.AttributeValue) bool {
		av, aok := a[ord.Column]
		bv, bok := b[ord.Column]
		if !aok || !bok {
			return aok
		}
		an, aIsN := av.(*types.AttributeValueMemberN)
		bn, bIsN := bv.(*types.AttributeValueMemberN)
		if aIsN && bIsN {
			af, _ := strconv.ParseFloat(an.Value, 64)
			bf, _ := strconv.ParseFloat(bn.Value, 64)
			return af < bf
		}
		as, aIsS := av.(*types.AttributeValueMemberS)
		bs, bIsS := bv.(*types.AttributeValueMemberS)
		if aIsS && bIsS {
			return as.Value < bs.Value
		}
		return false
	}
	sort.SliceStable(items, func(i, j int) bool {
		if ord.Descending {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
