package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// usageTable wraps the append-only usage log.
type usageTable struct {
	api     DynamoAPI
	name    string
	timeout time.Duration
}

// settingsTable wraps per-user notification preferences.
type settingsTable struct {
	api     DynamoAPI
	name    string
	timeout time.Duration
}

func opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (t usageTable) append(ctx context.Context, rec UsageRecord) error {
	ctx, cancel := opContext(ctx, t.timeout)
	defer cancel()

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return &Error{Op: "marshal usage record", Kind: KindValidation, Err: err}
	}

	_, err = t.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      item,
	})
	return classify("put usage record", err)
}

func (t usageTable) countByUsername(ctx context.Context, username string) (int, error) {
	ctx, cancel := opContext(ctx, t.timeout)
	defer cancel()

	total := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := t.api.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(t.name),
			KeyConditionExpression: aws.String("username = :username"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":username": &types.AttributeValueMemberS{Value: username},
			},
			Select:            types.SelectCount,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return 0, classify("count usage records", err)
		}
		total += int(out.Count)
		if out.LastEvaluatedKey == nil {
			return total, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (t usageTable) scanAll(ctx context.Context) ([]UsageRecord, error) {
	ctx, cancel := opContext(ctx, t.timeout)
	defer cancel()

	var records []UsageRecord
	var startKey map[string]types.AttributeValue
	for {
		out, err := t.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(t.name),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, classify("scan usage table", err)
		}

		var page []UsageRecord
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, &Error{Op: "unmarshal usage records", Kind: KindValidation, Err: err}
		}
		records = append(records, page...)

		if out.LastEvaluatedKey == nil {
			return records, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (t usageTable) ping(ctx context.Context) error {
	ctx, cancel := opContext(ctx, t.timeout)
	defer cancel()

	_, err := t.api.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(t.name),
		Limit:     aws.Int32(1),
		Select:    types.SelectCount,
	})
	return classify("ping usage table", err)
}

func (t settingsTable) put(ctx context.Context, rec SettingsRecord) error {
	ctx, cancel := opContext(ctx, t.timeout)
	defer cancel()

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return &Error{Op: "marshal settings record", Kind: KindValidation, Err: err}
	}

	_, err = t.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      item,
	})
	return classify("put settings record", err)
}

func (t settingsTable) get(ctx context.Context, username string) (SettingsRecord, error) {
	ctx, cancel := opContext(ctx, t.timeout)
	defer cancel()

	out, err := t.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(t.name),
		KeyConditionExpression: aws.String("username = :username"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":username": &types.AttributeValueMemberS{Value: username},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return SettingsRecord{}, classify("get settings record", err)
	}
	if len(out.Items) == 0 {
		return SettingsRecord{}, &Error{
			Op:   "get settings record",
			Kind: KindNotFound,
			Err:  fmt.Errorf("no settings for %q", username),
		}
	}

	var rec SettingsRecord
	if err := attributevalue.UnmarshalMap(out.Items[0], &rec); err != nil {
		return SettingsRecord{}, &Error{Op: "unmarshal settings record", Kind: KindValidation, Err: err}
	}
	return rec, nil
}
