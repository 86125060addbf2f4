package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/relay"
)

type fakeClient struct {
	inputs []*dynamodb.PutItemInput
	err    error
}

func (f *fakeClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.PutItemOutput{}, nil
}

func TestStore_Put(t *testing.T) {
	client := &fakeClient{}
	s, err := NewStore(client, "records")
	require.NoError(t, err)

	rec := relay.StoredRecord{
		ID:        "id-1",
		Timestamp: "2024-01-01T00:00:00Z",
		Message:   `{"forward":true}`,
		EventDetails: map[string]any{
			"type": "forward",
			"requestData": map[string]any{
				"body": `{"forward":true}`,
			},
		},
	}
	require.NoError(t, s.Put(context.Background(), rec))

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "records", aws.ToString(in.TableName))
	assert.Nil(t, in.ConditionExpression)

	id, ok := in.Item["id"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "id-1", id.Value)

	var got relay.StoredRecord
	require.NoError(t, attributevalue.UnmarshalMap(in.Item, &got))
	assert.Equal(t, rec, got)
}

func TestStore_Put_LargeInteger(t *testing.T) {
	client := &fakeClient{}
	s, err := NewStore(client, "records")
	require.NoError(t, err)

	rec := relay.StoredRecord{
		ID: "id-2",
		EventDetails: map[string]any{
			"epoch": json.Number("1712345678901234567"),
			"list":  []any{json.Number("1.5"), "x"},
		},
	}
	require.NoError(t, s.Put(context.Background(), rec))

	details, ok := client.inputs[0].Item["eventDetails"].(*types.AttributeValueMemberM)
	require.True(t, ok)

	epoch, ok := details.Value["epoch"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, "1712345678901234567", epoch.Value)

	list, ok := details.Value["list"].(*types.AttributeValueMemberL)
	require.True(t, ok)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1.5"}, list.Value[0])

	assert.Equal(t, json.Number("1712345678901234567"), rec.EventDetails["epoch"])
}

func TestStore_Put_Error(t *testing.T) {
	client := &fakeClient{err: errors.New("throttled")}
	s, err := NewStore(client, "records")
	require.NoError(t, err)

	err = s.Put(context.Background(), relay.StoredRecord{ID: "id-1"})
	assert.ErrorIs(t, err, relay.ErrDependency)
	assert.Contains(t, err.Error(), "throttled")
}

func TestNewStore_RequiresTable(t *testing.T) {
	_, err := NewStore(&fakeClient{}, "")
	assert.ErrorIs(t, err, relay.ErrConfiguration)
}
