package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"printora-backend/domain/content"
	pkgerrors "printora-backend/pkg/errors"
)

// orderItem is the stored shape of a customer order
type orderItem struct {
	PK         string          `dynamodbav:"PK"`
	SK         string          `dynamodbav:"SK"`
	OrderID    string          `dynamodbav:"OrderID"`
	Number     string          `dynamodbav:"Number"`
	Email      string          `dynamodbav:"Email"`
	Items      []orderLineItem `dynamodbav:"Items"`
	Status     string          `dynamodbav:"Status"`
	TotalCents int64           `dynamodbav:"TotalCents"`
	Currency   string          `dynamodbav:"Currency"`
	Locale     string          `dynamodbav:"Locale,omitempty"`
	CreatedAt  time.Time       `dynamodbav:"CreatedAt"`
	UpdatedAt  time.Time       `dynamodbav:"UpdatedAt"`
	Version    int             `dynamodbav:"Version"`
	GSI1PK     string          `dynamodbav:"GSI1PK"`
	GSI1SK     string          `dynamodbav:"GSI1SK"`
}

type orderLineItem struct {
	TemplateID     string            `dynamodbav:"TemplateID"`
	Quantity       int               `dynamodbav:"Quantity"`
	UnitPriceCents int64             `dynamodbav:"UnitPriceCents"`
	Options        map[string]string `dynamodbav:"Options,omitempty"`
}

func newOrderItem(order *content.Order) orderItem {
	lines := make([]orderLineItem, len(order.Items))
	for i, line := range order.Items {
		lines[i] = orderLineItem{
			TemplateID:     line.TemplateID,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			Options:        line.Options,
		}
	}
	return orderItem{
		PK:         orderPK(order.ID),
		SK:         metadataSK,
		OrderID:    order.ID,
		Number:     order.Number,
		Email:      order.Email,
		Items:      lines,
		Status:     string(order.Status),
		TotalCents: order.TotalCents,
		Currency:   order.Currency,
		Locale:     order.Locale,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
		Version:    order.Version,
		GSI1PK:     orderNumberKey(order.Number),
		GSI1SK:     metadataSK,
	}
}

func (i orderItem) toDomain() *content.Order {
	lines := make([]content.OrderItem, len(i.Items))
	for n, line := range i.Items {
		lines[n] = content.OrderItem{
			TemplateID:     line.TemplateID,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			Options:        line.Options,
		}
	}
	return &content.Order{
		ID:         i.OrderID,
		Number:     i.Number,
		Email:      i.Email,
		Items:      lines,
		Status:     content.OrderStatus(i.Status),
		TotalCents: i.TotalCents,
		Currency:   i.Currency,
		Locale:     i.Locale,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
		Version:    i.Version,
	}
}

// contactItem is the stored shape of a contact form submission
type contactItem struct {
	PK         string    `dynamodbav:"PK"`
	SK         string    `dynamodbav:"SK"`
	MessageID  string    `dynamodbav:"MessageID"`
	Name       string    `dynamodbav:"Name"`
	Email      string    `dynamodbav:"Email"`
	Subject    string    `dynamodbav:"Subject"`
	Message    string    `dynamodbav:"Message"`
	Locale     string    `dynamodbav:"Locale,omitempty"`
	ReceivedAt time.Time `dynamodbav:"ReceivedAt"`
}

// SaveOrder persists an order guarded by an optimistic version check.
// A stale write loses to the version already stored and surfaces as a
// conflict.
func (s *ContentStore) SaveOrder(ctx context.Context, order *content.Order) error {
	if order == nil || order.ID == "" {
		return pkgerrors.NewValidationError("order ID cannot be empty")
	}

	av, err := attributevalue.MarshalMap(newOrderItem(order))
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("PK")).
		Or(expression.Name("Version").LessThan(expression.Value(order.Version)))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build order condition: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			s.logger.Warn("Order save lost version race",
				zap.String("order_id", order.ID),
				zap.Int("version", order.Version),
			)
			return pkgerrors.NewConflictError("order was modified concurrently")
		}
		return fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Debug("Order saved",
		zap.String("order_id", order.ID),
		zap.String("number", order.Number),
		zap.Int("version", order.Version),
	)

	return nil
}

// GetOrder retrieves an order by its ID
func (s *ContentStore) GetOrder(ctx context.Context, id string) (*content.Order, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: orderPK(id)},
			"SK": &types.AttributeValueMemberS{Value: metadataSK},
		},
	}

	result, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("order")
	}

	var item orderItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}

	return item.toDomain(), nil
}

// GetOrderByNumber retrieves an order by its human-facing number
func (s *ContentStore) GetOrderByNumber(ctx context.Context, number string) (*content.Order, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(s.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: orderNumberKey(number)},
			":sk": &types.AttributeValueMemberS{Value: metadataSK},
		},
		Limit: aws.Int32(1),
	}

	result, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query order by number: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("order")
	}

	var item orderItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}

	return item.toDomain(), nil
}

// SaveContactMessage persists one contact form submission into the
// day-partitioned contact log
func (s *ContentStore) SaveContactMessage(ctx context.Context, message *content.ContactMessage) error {
	if message == nil || message.ID == "" {
		return pkgerrors.NewValidationError("message ID cannot be empty")
	}

	item := contactItem{
		PK:         contactPK(message.ReceivedAt),
		SK:         contactSK(message.ReceivedAt, message.ID),
		MessageID:  message.ID,
		Name:       message.Name,
		Email:      message.Email,
		Subject:    message.Subject,
		Message:    message.Message,
		Locale:     message.Locale,
		ReceivedAt: message.ReceivedAt,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal contact message: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to save contact message: %w", err)
	}

	s.logger.Debug("Contact message saved",
		zap.String("message_id", message.ID),
	)

	return nil
}
