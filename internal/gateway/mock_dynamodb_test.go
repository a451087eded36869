package gateway

import (
	"errors"
	"strings"
	"sync"

	"context"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory stand-in for the table service used in
// unit tests. It stores items per table keyed by the "id" attribute and
// understands just the expressions the gateway emits.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue

	putCalls   int
	scanCalls  int
	getCalls   int
	batchCalls int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) ensure(table string) map[string]map[string]types.AttributeValue {
	if _, ok := m.tables[table]; !ok {
		m.tables[table] = map[string]map[string]types.AttributeValue{}
	}
	return m.tables[table]
}

func (m *mockDynamo) seed(table, id string, item map[string]types.AttributeValue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(table)[id] = item
}

func itemID(item map[string]types.AttributeValue) string {
	if s, ok := item["id"].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func sameAV(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	}
	return false
}

// matchesFilter evaluates the equality/inclusion clauses built by
// buildFilter against one item.
func matchesFilter(in *dyn.ScanInput, item map[string]types.AttributeValue) bool {
	if in.FilterExpression == nil {
		return true
	}
	for _, clause := range strings.Split(*in.FilterExpression, " AND ") {
		if strings.Contains(clause, " IN (") {
			open := strings.Index(clause, " IN (")
			col := in.ExpressionAttributeNames[strings.TrimSpace(clause[:open])]
			list := strings.TrimSuffix(clause[open+len(" IN ("):], ")")
			hit := false
			for _, ph := range strings.Split(list, ", ") {
				if sameAV(item[col], in.ExpressionAttributeValues[ph]) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
			continue
		}
		parts := strings.Split(clause, " = ")
		if len(parts) != 2 {
			return false
		}
		col := in.ExpressionAttributeNames[strings.TrimSpace(parts[0])]
		if !sameAV(item[col], in.ExpressionAttributeValues[strings.TrimSpace(parts[1])]) {
			return false
		}
	}
	return true
}

func (m *mockDynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	for _, kv := range in.Key {
		s, ok := kv.(*types.AttributeValueMemberS)
		if !ok {
			return nil, errors.New("mock: non-string key")
		}
		item, ok := m.ensure(*in.TableName)[s.Value]
		if !ok {
			return &dyn.GetItemOutput{}, nil
		}
		return &dyn.GetItemOutput{Item: item}, nil
	}
	return nil, errors.New("mock: missing key")
}

func (m *mockDynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	id := itemID(in.Item)
	if id == "" {
		return nil, errors.New("mock: item without id")
	}
	tbl := m.ensure(*in.TableName)
	if in.ConditionExpression != nil && strings.HasPrefix(*in.ConditionExpression, "attribute_not_exists") {
		if _, ok := tbl[id]; ok {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	tbl[id] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var id string
	for _, kv := range in.Key {
		id = kv.(*types.AttributeValueMemberS).Value
	}
	tbl := m.ensure(*in.TableName)
	item, ok := tbl[id]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	// apply SET #uN = :uN pairs
	expr := strings.TrimPrefix(*in.UpdateExpression, "SET ")
	for _, assign := range strings.Split(expr, ", ") {
		parts := strings.Split(assign, " = ")
		col := in.ExpressionAttributeNames[strings.TrimSpace(parts[0])]
		item[col] = in.ExpressionAttributeValues[strings.TrimSpace(parts[1])]
	}
	tbl[id] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, in *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var id string
	for _, kv := range in.Key {
		id = kv.(*types.AttributeValueMemberS).Value
	}
	tbl := m.ensure(*in.TableName)
	if _, ok := tbl[id]; !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	delete(tbl, id)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, in *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanCalls++
	out := &dyn.ScanOutput{}
	for _, item := range m.ensure(*in.TableName) {
		if matchesFilter(in, item) {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

func (m *mockDynamo) BatchWriteItem(ctx context.Context, in *dyn.BatchWriteItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchWriteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	for table, reqs := range in.RequestItems {
		tbl := m.ensure(table)
		for _, r := range reqs {
			if r.PutRequest == nil {
				return nil, errors.New("mock: only put requests supported")
			}
			tbl[itemID(r.PutRequest.Item)] = r.PutRequest.Item
		}
	}
	return &dyn.BatchWriteItemOutput{}, nil
}
