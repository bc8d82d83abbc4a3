package dynamo

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-classifieds/internal/domain"
)

// ChannelPostRepo provides typed DynamoDB operations for imported channel posts.
// PK: tg_message_id (number). A full-item PutItem doubles as the idempotent
// upsert: re-importing the same message replaces the row in place.
type ChannelPostRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewChannelPostRepo(client *dynamodb.Client, tableName string) *ChannelPostRepo {
	return &ChannelPostRepo{client: client, tableName: tableName}
}

func (r *ChannelPostRepo) Upsert(ctx context.Context, p *domain.ChannelPost) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal channel post: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ChannelPostRepo) Get(ctx context.Context, tgMessageID int64) (*domain.ChannelPost, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       numKey("tg_message_id", tgMessageID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("channel post not found: %w", domain.ErrNotFound)
	}
	var p domain.ChannelPost
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ScanPage returns a page of posts, optionally filtered by country.
// cursor is a base64-encoded tg_message_id used as ExclusiveStartKey.
func (r *ChannelPostRepo) ScanPage(ctx context.Context, limit int32, cursor, country string) ([]domain.ChannelPost, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if country != "" {
		input.FilterExpression = aws.String("contains(countries, :c)")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: country},
		}
	}
	if cursor != "" {
		id, err := decodePostCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = numKey("tg_message_id", id)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var posts []domain.ChannelPost
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &posts); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["tg_message_id"].(*types.AttributeValueMemberN); ok {
		nextCursor = base64.RawURLEncoding.EncodeToString([]byte(v.Value))
	}
	return posts, nextCursor, nil
}

func decodePostCursor(cursor string) (int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(string(b), 10, 64)
}
