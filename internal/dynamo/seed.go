package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/hive-fieldops/backend/internal/models"
)

// DefaultManagers mirrors the managers seeded by the SQL migrations.
var DefaultManagers = []models.Manager{
	{ID: "mgr-norte", Name: "Ricardo Alves", Email: "ricardo.alves@hive.local", Areas: []models.Area{models.AreaNorte, models.AreaCentro}, Active: true},
	{ID: "mgr-sul", Name: "Fernanda Costa", Email: "fernanda.costa@hive.local", Areas: []models.Area{models.AreaSul}, Active: true},
	{ID: "mgr-leste", Name: "Paulo Mendes", Email: "paulo.mendes@hive.local", Areas: []models.Area{models.AreaLeste, models.AreaCentro}, Active: true},
	{ID: "mgr-oeste", Name: "Juliana Rocha", Email: "juliana.rocha@hive.local", Areas: []models.Area{models.AreaOeste}, Active: true},
	{ID: "mgr-centro", Name: "Marcos Oliveira", Email: "marcos.oliveira@hive.local", Areas: []models.Area{models.AreaCentro}, Active: false},
}

// SeedManagers inserts managers that do not exist yet and leaves existing
// records untouched.
func (s *Store) SeedManagers(ctx context.Context, managers []models.Manager) (int, error) {
	inserted := 0
	for _, m := range managers {
		av, err := attributevalue.MarshalMap(toManagerItem(m))
		if err != nil {
			return inserted, err
		}
		_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                aws.String(s.managersTable),
			Item:                     av,
			ConditionExpression:      aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{"#id": "id"},
		})
		if isConditionFailed(err) {
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
