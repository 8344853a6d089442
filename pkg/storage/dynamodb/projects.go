package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/project-billing/pkg/models"
	"github.com/chris/project-billing/pkg/storage"
)

// GetProject retrieves a registered project by repository and provider.
func (s *Store) GetProject(ctx context.Context, repoFullName, provider string) (*models.Project, error) {
	projectID := models.Project{RepoFullName: repoFullName, Provider: provider}.Key()
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Tables.Projects),
		Key: map[string]types.AttributeValue{
			"project_id": &types.AttributeValueMemberS{Value: projectID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get project from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, storage.ErrNotFound)
	}

	var item projectItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	project := item.toModel()
	return &project, nil
}

// RegisterProject writes the project record, replacing any previous one.
func (s *Store) RegisterProject(ctx context.Context, project models.Project) error {
	av, err := attributevalue.MarshalMap(projectItem{
		ProjectID:      project.Key(),
		RepoFullName:   project.RepoFullName,
		Provider:       project.Provider,
		Owner:          project.Owner,
		ProjectManager: project.ProjectManager,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	if _, err := s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.Tables.Projects),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to register project in DynamoDB: %w", err)
	}
	return nil
}
