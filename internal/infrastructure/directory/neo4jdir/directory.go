package neo4jdir

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
)

// Directory reads group membership and approvable document types from a
// Neo4j graph:
//
//	(u:User)-[:MEMBER_OF]->(g:Group)-[:MAY_APPROVE]->(t:DocumentType)
//
// It is an alternative backend to the relational directory tables for
// deployments where the organization chart already lives in a graph.
type Directory struct {
	driver neo4j.DriverWithContext
}

func New(ctx context.Context, uri, username, password string) (*Directory, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Directory{driver: driver}, nil
}

func (d *Directory) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

func (d *Directory) GroupsOf(ctx context.Context, username string) ([]domain.Group, error) {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	records, err := neo4j.ExecuteRead(ctx, session,
		func(tx neo4j.ManagedTransaction) ([]*neo4j.Record, error) {
			result, err := tx.Run(ctx, `
MATCH (u:User {username: $username})
OPTIONAL MATCH (u)-[:MEMBER_OF]->(g:Group)
OPTIONAL MATCH (g)-[:MAY_APPROVE]->(t:DocumentType)
RETURN g.name AS group_name, collect(t.name) AS doc_types
ORDER BY group_name
`, map[string]any{"username": username})
			if err != nil {
				return nil, err
			}
			return result.Collect(ctx)
		})
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	if len(records) == 0 {
		return nil, domain.WrapError(domain.ErrNotFound, "groups of", fmt.Errorf("user %s", username))
	}

	var groups []domain.Group
	for _, record := range records {
		name, ok := record.Get("group_name")
		if !ok || name == nil {
			// User node exists but has no memberships.
			continue
		}
		group := domain.Group{Name: name.(string)}
		if raw, ok := record.Get("doc_types"); ok && raw != nil {
			for _, t := range raw.([]any) {
				if t != nil {
					group.ApprovableTypes = append(group.ApprovableTypes, t.(string))
				}
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}
