package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/Esosek/tubely/internal/config"
	"github.com/Esosek/tubely/pkg/models"
)

// DynamoDBStore persists video and user records in a single DynamoDB table.
// Videos live under VIDEO#<id>/METADATA with a GSI1 projection keyed by the
// owning user; users live under USER#<email>/PROFILE.
type DynamoDBStore struct {
	client    *dynamodb.Client
	tableName string
}

var _ VideoStore = (*DynamoDBStore)(nil)

type videoItem struct {
	PK     string `dynamodbav:"pk"`
	SK     string `dynamodbav:"sk"`
	GSI1PK string `dynamodbav:"gsi1pk"`
	GSI1SK string `dynamodbav:"gsi1sk"`
	models.Video
}

type userItem struct {
	PK string `dynamodbav:"pk"`
	SK string `dynamodbav:"sk"`
	models.User
}

// NewDynamoDBStore creates a DynamoDBStore using the provided configuration.
func NewDynamoDBStore(ctx context.Context, cfg *config.Config) (*DynamoDBStore, error) {
	if cfg.Store.DynamoDBTable == "" {
		return nil, errors.New("DynamoDB table name is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWS.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	return &DynamoDBStore{
		client:    dynamodb.NewFromConfig(awsCfg),
		tableName: cfg.Store.DynamoDBTable,
	}, nil
}

// NewDynamoDBStoreFromClient creates a DynamoDBStore from an existing client.
func NewDynamoDBStoreFromClient(client *dynamodb.Client, tableName string) *DynamoDBStore {
	return &DynamoDBStore{client: client, tableName: tableName}
}

func videoKey(videoID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: "VIDEO#" + videoID},
		"sk": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

// CreateVideo creates a new video record.
func (s *DynamoDBStore) CreateVideo(ctx context.Context, video *models.Video) error {
	item, err := attributevalue.MarshalMap(videoItem{
		PK:     "VIDEO#" + video.ID,
		SK:     "METADATA",
		GSI1PK: "USER#" + video.UserID,
		GSI1SK: fmt.Sprintf("%s#%s", video.CreatedAt.UTC().Format(time.RFC3339), video.ID),
		Video:  *video,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal video: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return models.ErrVideoExists
		}
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

// GetVideo retrieves a video record by ID.
func (s *DynamoDBStore) GetVideo(ctx context.Context, videoID string) (*models.Video, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       videoKey(videoID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	if result.Item == nil {
		return nil, models.ErrVideoNotFound
	}

	var item videoItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video: %w", err)
	}

	return &item.Video, nil
}

// UpdateVideo updates the mutable fields of a video record.
func (s *DynamoDBStore) UpdateVideo(ctx context.Context, video *models.Video) error {
	values := map[string]types.AttributeValue{
		":title":       &types.AttributeValueMemberS{Value: video.Title},
		":description": &types.AttributeValueMemberS{Value: video.Description},
		":updated_at":  &types.AttributeValueMemberS{Value: video.UpdatedAt.UTC().Format(time.RFC3339)},
	}
	update := "SET title = :title, description = :description, updated_at = :updated_at"

	if video.ThumbnailURL != nil {
		values[":thumbnail_url"] = &types.AttributeValueMemberS{Value: *video.ThumbnailURL}
		update += ", thumbnail_url = :thumbnail_url"
	}
	if video.VideoURL != nil {
		values[":video_url"] = &types.AttributeValueMemberS{Value: *video.VideoURL}
		update += ", video_url = :video_url"
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       videoKey(video.ID),
		UpdateExpression:          aws.String(update),
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(pk)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return models.ErrVideoNotFound
		}
		return fmt.Errorf("failed to update video: %w", err)
	}

	return nil
}

// ListVideosByUser returns the user's videos, newest first.
func (s *DynamoDBStore) ListVideosByUser(ctx context.Context, userID string) ([]models.Video, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "USER#" + userID},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}

	var items []videoItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal videos: %w", err)
	}

	videos := make([]models.Video, 0, len(items))
	for _, item := range items {
		videos = append(videos, item.Video)
	}

	return videos, nil
}

// CreateUser creates a new user record.
func (s *DynamoDBStore) CreateUser(ctx context.Context, user *models.User) error {
	item, err := attributevalue.MarshalMap(userItem{
		PK:   "USER#" + user.Email,
		SK:   "PROFILE",
		User: *user,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return models.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user record by email.
func (s *DynamoDBStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: "USER#" + email},
			"sk": &types.AttributeValueMemberS{Value: "PROFILE"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if result.Item == nil {
		return nil, models.ErrUserNotFound
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &item.User, nil
}

// Ping verifies the table is reachable.
func (s *DynamoDBStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return fmt.Errorf("failed to describe table %s: %w", s.tableName, err)
	}
	return nil
}

// Close is a no-op; the DynamoDB client holds no persistent connection.
func (s *DynamoDBStore) Close() error {
	return nil
}
