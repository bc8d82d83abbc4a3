package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-classifieds/internal/domain"
)

// VerificationRepo manages Telegram verification records.
// PK: token. The table carries a TTL on expires_at so abandoned records
// are swept by DynamoDB; correctness never depends on the sweep, expiry
// is always re-checked at consumption time.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

func (r *VerificationRepo) Put(ctx context.Context, v *domain.TelegramVerification) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#t)"),
		ExpressionAttributeNames: map[string]string{
			"#t": "token",
		},
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("duplicate verification token: %w", domain.ErrConflict)
	}
	return err
}

func (r *VerificationRepo) Get(ctx context.Context, token string) (*domain.TelegramVerification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token", token),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	var v domain.TelegramVerification
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// MarkResolved writes the bot half of the record: resolved identity and
// optional avatar. Conditional on the record still existing, so a consumed
// or swept record is never resurrected. created_at is never touched.
func (r *VerificationRepo) MarkResolved(ctx context.Context, token, username, tgUserID, avatarURL string, resolvedAt time.Time) error {
	updates := map[string]interface{}{
		fieldState:      domain.VerificationResolved,
		fieldUsername:   username,
		fieldTgUserID:   tgUserID,
		fieldResolvedAt: resolvedAt,
	}
	if avatarURL != "" {
		updates[fieldAvatarURL] = avatarURL
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#t"] = "token"
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("token", token),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#t)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("verification gone: %w", domain.ErrNotFound)
	}
	return err
}

// IncrementAttempts counts one failed code guess and returns the new total.
func (r *VerificationRepo) IncrementAttempts(ctx context.Context, token string) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey("token", token),
		UpdateExpression:         aws.String("ADD attempts :one"),
		ConditionExpression:      aws.String("attribute_exists(#t)"),
		ExpressionAttributeNames: map[string]string{"#t": "token"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if isConditionalCheckFailed(err) {
		return 0, fmt.Errorf("verification gone: %w", domain.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	var got struct {
		Attempts int `dynamodbav:"attempts"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &got); err != nil {
		return 0, err
	}
	return got.Attempts, nil
}

// ConsumeIfCode atomically deletes the record if and only if its code
// matches, returning the deleted record. Exactly one of two concurrent
// callers with the correct code can win; the loser gets ErrNotFound.
func (r *VerificationRepo) ConsumeIfCode(ctx context.Context, token, code string) (*domain.TelegramVerification, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey("token", token),
		ConditionExpression:      aws.String("attribute_exists(#t) AND code = :c"),
		ExpressionAttributeNames: map[string]string{"#t": "token"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: code},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if isConditionalCheckFailed(err) {
		return nil, fmt.Errorf("verification consumed or code mismatch: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var v domain.TelegramVerification
	if err := attributevalue.UnmarshalMap(out.Attributes, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VerificationRepo) Delete(ctx context.Context, token string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token", token),
	})
	return err
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
