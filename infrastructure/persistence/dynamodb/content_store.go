// Package dynamodb implements the content ports on a single DynamoDB
// table shared with the rest of the storefront backend.
//
// Item layout:
//
//	Template      PK=TEMPLATE#<id>    SK=METADATA  GSI1PK=TEMPLATESLUG#<slug>  GSI1SK=LOCALE#<locale>  GSI2PK=TEMPLATELIST  GSI2SK=NAME#<name>#<id>
//	BlogArticle   PK=ARTICLE#<id>     SK=METADATA  GSI1PK=ARTICLESLUG#<slug>   GSI1SK=LOCALE#<locale>  GSI2PK=ARTICLELIST   GSI2SK=PUBLISHED#<ts>#<id>
//	Order         PK=ORDER#<id>       SK=METADATA  GSI1PK=ORDERNUM#<number>    GSI1SK=METADATA
//	Contact       PK=CONTACT#<date>   SK=MESSAGE#<ts>#<id>
//	ImageMeta     PK=IMAGE#<path>     SK=METADATA
//
// Catalog, blog and image items are written by the content import
// pipeline; this store only reads them. Orders and contact messages are
// written here.
package dynamodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"printora-backend/application/ports"
	"printora-backend/domain/content"
	pkgerrors "printora-backend/pkg/errors"
)

const (
	metadataSK            = "METADATA"
	templateListPartition = "TEMPLATELIST"
	articleListPartition  = "ARTICLELIST"
)

func templatePK(id string) string { return "TEMPLATE#" + id }

func templateSlugKey(slug string) string { return "TEMPLATESLUG#" + slug }

func articlePK(id string) string { return "ARTICLE#" + id }

func articleSlugKey(slug string) string { return "ARTICLESLUG#" + slug }

func orderPK(id string) string { return "ORDER#" + id }

func orderNumberKey(number string) string { return "ORDERNUM#" + number }

func imagePK(path string) string { return "IMAGE#" + path }

func localeSK(locale string) string { return "LOCALE#" + locale }

func contactPK(receivedAt time.Time) string {
	return "CONTACT#" + receivedAt.UTC().Format("2006-01-02")
}

func contactSK(receivedAt time.Time, id string) string {
	return "MESSAGE#" + receivedAt.UTC().Format(time.RFC3339Nano) + "#" + id
}

func nameSortKey(name, id string) string {
	return "NAME#" + strings.ToLower(name) + "#" + id
}

func publishedSortKey(publishedAt time.Time, id string) string {
	return "PUBLISHED#" + publishedAt.UTC().Format(time.RFC3339) + "#" + id
}

// ContentStore implements ports.ContentStore on the storefront table
type ContentStore struct {
	client        *dynamodb.Client
	tableName     string
	indexName     string // GSI1 - slug and order number lookups
	gsi2IndexName string // GSI2 - catalog and blog listings
	logger        *zap.Logger
}

// NewContentStore creates a content store bound to the given table
func NewContentStore(client *dynamodb.Client, tableName, indexName, gsi2IndexName string, logger *zap.Logger) *ContentStore {
	return &ContentStore{
		client:        client,
		tableName:     tableName,
		indexName:     indexName,
		gsi2IndexName: gsi2IndexName,
		logger:        logger,
	}
}

var _ ports.ContentStore = (*ContentStore)(nil)

// templateItem is the stored shape of a catalog template
type templateItem struct {
	PK          string    `dynamodbav:"PK"`
	SK          string    `dynamodbav:"SK"`
	TemplateID  string    `dynamodbav:"TemplateID"`
	Slug        string    `dynamodbav:"Slug"`
	Name        string    `dynamodbav:"Name"`
	Description string    `dynamodbav:"Description,omitempty"`
	Category    string    `dynamodbav:"Category"`
	PriceCents  int64     `dynamodbav:"PriceCents"`
	Currency    string    `dynamodbav:"Currency"`
	PreviewURL  string    `dynamodbav:"PreviewURL,omitempty"`
	Tags        []string  `dynamodbav:"Tags,omitempty"`
	Locale      string    `dynamodbav:"Locale,omitempty"`
	Published   bool      `dynamodbav:"Published"`
	CreatedAt   time.Time `dynamodbav:"CreatedAt"`
	UpdatedAt   time.Time `dynamodbav:"UpdatedAt"`
	Version     int       `dynamodbav:"Version"`
	GSI1PK      string    `dynamodbav:"GSI1PK"`
	GSI1SK      string    `dynamodbav:"GSI1SK"`
	GSI2PK      string    `dynamodbav:"GSI2PK"`
	GSI2SK      string    `dynamodbav:"GSI2SK"`
}

func (i templateItem) toDomain() *content.Template {
	return &content.Template{
		ID:          i.TemplateID,
		Slug:        i.Slug,
		Name:        i.Name,
		Description: i.Description,
		Category:    i.Category,
		PriceCents:  i.PriceCents,
		Currency:    i.Currency,
		PreviewURL:  i.PreviewURL,
		Tags:        i.Tags,
		Locale:      i.Locale,
		Published:   i.Published,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
		Version:     i.Version,
	}
}

// articleItem is the stored shape of a blog article
type articleItem struct {
	PK          string     `dynamodbav:"PK"`
	SK          string     `dynamodbav:"SK"`
	ArticleID   string     `dynamodbav:"ArticleID"`
	Slug        string     `dynamodbav:"Slug"`
	Title       string     `dynamodbav:"Title"`
	Excerpt     string     `dynamodbav:"Excerpt,omitempty"`
	Body        string     `dynamodbav:"Body"`
	Author      string     `dynamodbav:"Author,omitempty"`
	Tags        []string   `dynamodbav:"Tags,omitempty"`
	Locale      string     `dynamodbav:"Locale,omitempty"`
	Published   bool       `dynamodbav:"Published"`
	PublishedAt *time.Time `dynamodbav:"PublishedAt,omitempty"`
	CreatedAt   time.Time  `dynamodbav:"CreatedAt"`
	UpdatedAt   time.Time  `dynamodbav:"UpdatedAt"`
	Version     int        `dynamodbav:"Version"`
	GSI1PK      string     `dynamodbav:"GSI1PK"`
	GSI1SK      string     `dynamodbav:"GSI1SK"`
	GSI2PK      string     `dynamodbav:"GSI2PK"`
	GSI2SK      string     `dynamodbav:"GSI2SK"`
}

func (i articleItem) toDomain() *content.BlogArticle {
	return &content.BlogArticle{
		ID:          i.ArticleID,
		Slug:        i.Slug,
		Title:       i.Title,
		Excerpt:     i.Excerpt,
		Body:        i.Body,
		Author:      i.Author,
		Tags:        i.Tags,
		Locale:      i.Locale,
		Published:   i.Published,
		PublishedAt: i.PublishedAt,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
		Version:     i.Version,
	}
}

// imageItem is the stored shape of image metadata
type imageItem struct {
	PK        string            `dynamodbav:"PK"`
	SK        string            `dynamodbav:"SK"`
	ImageID   string            `dynamodbav:"ImageID"`
	Path      string            `dynamodbav:"Path"`
	Format    string            `dynamodbav:"Format"`
	Width     int               `dynamodbav:"Width"`
	Height    int               `dynamodbav:"Height"`
	SizeBytes int64             `dynamodbav:"SizeBytes"`
	ETag      string            `dynamodbav:"ETag,omitempty"`
	Variants  map[string]string `dynamodbav:"Variants,omitempty"`
	UpdatedAt time.Time         `dynamodbav:"UpdatedAt"`
}

func (i imageItem) toDomain() *content.ImageMeta {
	return &content.ImageMeta{
		ID:        i.ImageID,
		Path:      i.Path,
		Format:    i.Format,
		Width:     i.Width,
		Height:    i.Height,
		SizeBytes: i.SizeBytes,
		ETag:      i.ETag,
		Variants:  i.Variants,
		UpdatedAt: i.UpdatedAt,
	}
}

// GetTemplate retrieves a template by its ID
func (s *ContentStore) GetTemplate(ctx context.Context, id string) (*content.Template, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: templatePK(id)},
			"SK": &types.AttributeValueMemberS{Value: metadataSK},
		},
	}

	result, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("template")
	}

	var item templateItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template: %w", err)
	}

	return item.toDomain(), nil
}

// GetTemplateBySlug retrieves a template by slug and locale. An exact
// locale match wins over a neutral item stored without a locale.
func (s *ContentStore) GetTemplateBySlug(ctx context.Context, slug, locale string) (*content.Template, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(s.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: templateSlugKey(slug)},
		},
	}

	result, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query template by slug: %w", err)
	}

	var neutral *templateItem
	for _, raw := range result.Items {
		var item templateItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			s.logger.Warn("Failed to unmarshal template item",
				zap.String("slug", slug),
				zap.Error(err),
			)
			continue
		}
		if item.Locale == locale {
			return item.toDomain(), nil
		}
		if item.Locale == "" {
			match := item
			neutral = &match
		}
	}
	if neutral != nil {
		return neutral.toDomain(), nil
	}
	return nil, pkgerrors.NewNotFoundError("template")
}

// ListTemplates retrieves one page of the published catalog, sorted by
// name. The list partition is bounded to catalog size, so the page is cut
// in memory after the filtered query; the cache in front absorbs the read
// cost.
func (s *ContentStore) ListTemplates(ctx context.Context, query ports.TemplateQuery) (*content.TemplatePage, error) {
	keyCond := expression.Key("GSI2PK").Equal(expression.Value(templateListPartition))

	filter := expression.Name("Published").Equal(expression.Value(true))
	if query.Category != "" {
		filter = filter.And(expression.Name("Category").Equal(expression.Value(query.Category)))
	}
	if query.Locale != "" {
		filter = filter.And(
			expression.Name("Locale").Equal(expression.Value(query.Locale)).
				Or(expression.AttributeNotExists(expression.Name("Locale"))),
		)
	}

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyCond).
		WithFilter(filter).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build template list expression: %w", err)
	}

	items, err := s.queryAllPages(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.gsi2IndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query template list: %w", err)
	}

	matched := make([]content.TemplateSummary, 0, len(items))
	for _, raw := range items {
		var item templateItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			s.logger.Warn("Failed to unmarshal template list item", zap.Error(err))
			continue
		}
		matched = append(matched, item.toDomain().Summary())
	}

	page, pageSize := normalizePage(query.Page, query.PageSize)
	start, end := pageBounds(len(matched), page, pageSize)

	return &content.TemplatePage{
		Templates:  matched[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalCount: len(matched),
		TotalPages: totalPages(len(matched), pageSize),
	}, nil
}

// GetArticle retrieves a blog article by its ID
func (s *ContentStore) GetArticle(ctx context.Context, id string) (*content.BlogArticle, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: articlePK(id)},
			"SK": &types.AttributeValueMemberS{Value: metadataSK},
		},
	}

	result, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("article")
	}

	var item articleItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal article: %w", err)
	}

	return item.toDomain(), nil
}

// GetArticleBySlug retrieves a blog article by slug and locale
func (s *ContentStore) GetArticleBySlug(ctx context.Context, slug, locale string) (*content.BlogArticle, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(s.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: articleSlugKey(slug)},
		},
	}

	result, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query article by slug: %w", err)
	}

	var neutral *articleItem
	for _, raw := range result.Items {
		var item articleItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			s.logger.Warn("Failed to unmarshal article item",
				zap.String("slug", slug),
				zap.Error(err),
			)
			continue
		}
		if item.Locale == locale {
			return item.toDomain(), nil
		}
		if item.Locale == "" {
			match := item
			neutral = &match
		}
	}
	if neutral != nil {
		return neutral.toDomain(), nil
	}
	return nil, pkgerrors.NewNotFoundError("article")
}

// ListArticles retrieves one page of published articles, newest first.
// Tags are matched exactly; the import pipeline stores them lowercased.
func (s *ContentStore) ListArticles(ctx context.Context, query ports.BlogQuery) (*content.BlogListPage, error) {
	keyCond := expression.Key("GSI2PK").Equal(expression.Value(articleListPartition))

	filter := expression.Name("Published").Equal(expression.Value(true))
	if query.Tag != "" {
		filter = filter.And(expression.Name("Tags").Contains(strings.ToLower(query.Tag)))
	}
	if query.Locale != "" {
		filter = filter.And(
			expression.Name("Locale").Equal(expression.Value(query.Locale)).
				Or(expression.AttributeNotExists(expression.Name("Locale"))),
		)
	}

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyCond).
		WithFilter(filter).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build article list expression: %w", err)
	}

	items, err := s.queryAllPages(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.gsi2IndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query article list: %w", err)
	}

	matched := make([]content.BlogArticleSummary, 0, len(items))
	for _, raw := range items {
		var item articleItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			s.logger.Warn("Failed to unmarshal article list item", zap.Error(err))
			continue
		}
		matched = append(matched, item.toDomain().Summary())
	}

	page, pageSize := normalizePage(query.Page, query.PageSize)
	start, end := pageBounds(len(matched), page, pageSize)

	return &content.BlogListPage{
		Articles:   matched[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalCount: len(matched),
		TotalPages: totalPages(len(matched), pageSize),
	}, nil
}

// GetImageMeta retrieves metadata for one stored image path
func (s *ContentStore) GetImageMeta(ctx context.Context, path string) (*content.ImageMeta, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: imagePK(path)},
			"SK": &types.AttributeValueMemberS{Value: metadataSK},
		},
	}

	result, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get image metadata: %w", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("image")
	}

	var item imageItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal image metadata: %w", err)
	}

	return item.toDomain(), nil
}

// queryAllPages drains a query across DynamoDB result pages
func (s *ContentStore) queryAllPages(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, result.Items...)
		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return items, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func pageBounds(total, page, pageSize int) (int, int) {
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
