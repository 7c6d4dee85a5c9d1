package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"fableforge/internal/graph"
	"fableforge/internal/store"
	"fableforge/internal/validate"
)

type GetEntityInput struct {
	Type string `json:"type" jsonschema:"entity type"`
	ID   string `json:"id" jsonschema:"entity id"`
}

type ListEntitiesInput struct {
	Type string `json:"type,omitempty" jsonschema:"restrict to one entity type"`
}

type FindRelationsInput struct {
	SubjectType string         `json:"subject_type,omitempty" jsonschema:"subject entity type"`
	SubjectID   string         `json:"subject_id,omitempty" jsonschema:"subject entity id"`
	Predicate   string         `json:"predicate,omitempty" jsonschema:"relationship type"`
	ObjectType  string         `json:"object_type,omitempty" jsonschema:"object entity type"`
	ObjectID    string         `json:"object_id,omitempty" jsonschema:"object entity id"`
	Metadata    map[string]any `json:"metadata,omitempty" jsonschema:"exact-match metadata filters"`
}

type FindPathInput struct {
	FromType string `json:"from_type" jsonschema:"starting entity type"`
	FromID   string `json:"from_id" jsonschema:"starting entity id"`
	ToType   string `json:"to_type" jsonschema:"target entity type"`
	ToID     string `json:"to_id" jsonschema:"target entity id"`
	MaxDepth int    `json:"max_depth,omitempty" jsonschema:"maximum path length in hops"`
}

type EntityRefInput struct {
	Type string `json:"type" jsonschema:"entity type"`
	ID   string `json:"id" jsonschema:"entity id"`
}

type ValidateWorldInput struct{}

type GraphStatsInput struct{}

type LootDropsInput struct {
	SourceType string `json:"source_type" jsonschema:"entity type of the loot source"`
	SourceID   string `json:"source_id" jsonschema:"entity id of the loot source"`
	ActorLevel int    `json:"actor_level,omitempty" jsonschema:"actor level for gated drops, 0 disables the gate"`
}

type EntityOutput struct {
	Type          string         `json:"type"`
	ID            string         `json:"id"`
	Data          map[string]any `json:"data"`
	Relationships store.Refs     `json:"relationships,omitempty"`
}

type ListEntitiesOutput struct {
	Entities []EntityOutput `json:"entities"`
}

type FindRelationsOutput struct {
	Triplets []graph.Triplet `json:"triplets"`
}

type FindPathOutput struct {
	Paths [][]graph.Triplet `json:"paths"`
}

type AffectedEntitiesOutput struct {
	Direct   []store.Ref `json:"direct"`
	Indirect []store.Ref `json:"indirect"`
	All      []store.Ref `json:"all"`
}

type DependencyChainOutput struct {
	Chain []EntityOutput `json:"chain"`
}

type ValidateWorldOutput struct {
	Valid  bool             `json:"valid"`
	Issues []validate.Issue `json:"issues"`
}

type GraphStatsOutput struct {
	Triplets    int            `json:"triplets"`
	Entities    int            `json:"entities"`
	EntityTypes []string       `json:"entity_types"`
	Predicates  map[string]int `json:"predicates"`
}

type LootDropsOutput struct {
	Drops []graph.LootDrop `json:"drops"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_entity",
		Description: "Retrieve one entity with its payload and relationships",
	}, s.handleGetEntity)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_entities",
		Description: "List entities, optionally restricted to one type",
	}, s.handleListEntities)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "find_relations",
		Description: "Query relationship triplets by subject, predicate, object, and metadata",
	}, s.handleFindRelations)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "find_path",
		Description: "Enumerate relationship paths between two entities",
	}, s.handleFindPath)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "affected_entities",
		Description: "Report which entities are directly and indirectly affected by changing one",
	}, s.handleAffectedEntities)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "dependency_chain",
		Description: "Walk everything an entity transitively depends on",
	}, s.handleDependencyChain)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "validate_world",
		Description: "Run the full consistency pass over the world",
	}, s.handleValidateWorld)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "graph_stats",
		Description: "Summarize the relationship graph",
	}, s.handleGraphStats)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "loot_drops",
		Description: "Roll loot drops from an entity's drop relationships",
	}, s.handleLootDrops)
}

func (s *Server) handleGetEntity(ctx context.Context, req *sdk.CallToolRequest, input GetEntityInput) (*sdk.CallToolResult, EntityOutput, error) {
	if input.Type == "" || input.ID == "" {
		return nil, EntityOutput{}, fmt.Errorf("type and id are required")
	}
	entity, ok := s.world.Store.Get(input.Type, input.ID)
	if !ok {
		return nil, EntityOutput{}, fmt.Errorf("entity %s/%s not found", input.Type, input.ID)
	}
	return nil, entityOutput(entity), nil
}

func (s *Server) handleListEntities(ctx context.Context, req *sdk.CallToolRequest, input ListEntitiesInput) (*sdk.CallToolResult, ListEntitiesOutput, error) {
	var entities []*store.Entity
	if input.Type != "" {
		entities = s.world.Store.ByType(input.Type)
	} else {
		entities = s.world.Store.All()
	}

	output := make([]EntityOutput, 0, len(entities))
	for _, e := range entities {
		output = append(output, entityOutput(e))
	}
	return nil, ListEntitiesOutput{Entities: output}, nil
}

func (s *Server) handleFindRelations(ctx context.Context, req *sdk.CallToolRequest, input FindRelationsInput) (*sdk.CallToolResult, FindRelationsOutput, error) {
	triplets := s.world.Graph.Find(graph.Criteria{
		SubjectType: input.SubjectType,
		SubjectID:   input.SubjectID,
		Predicate:   input.Predicate,
		ObjectType:  input.ObjectType,
		ObjectID:    input.ObjectID,
		Metadata:    input.Metadata,
	})
	return nil, FindRelationsOutput{Triplets: triplets}, nil
}

func (s *Server) handleFindPath(ctx context.Context, req *sdk.CallToolRequest, input FindPathInput) (*sdk.CallToolResult, FindPathOutput, error) {
	if input.FromType == "" || input.FromID == "" || input.ToType == "" || input.ToID == "" {
		return nil, FindPathOutput{}, fmt.Errorf("from and to entity refs are required")
	}
	paths := s.world.Graph.FindPath(
		graph.EntityRef{Type: input.FromType, ID: input.FromID},
		graph.EntityRef{Type: input.ToType, ID: input.ToID},
		input.MaxDepth,
	)
	return nil, FindPathOutput{Paths: paths}, nil
}

func (s *Server) handleAffectedEntities(ctx context.Context, req *sdk.CallToolRequest, input EntityRefInput) (*sdk.CallToolResult, AffectedEntitiesOutput, error) {
	if input.Type == "" || input.ID == "" {
		return nil, AffectedEntitiesOutput{}, fmt.Errorf("type and id are required")
	}
	affected := s.world.Analyzer.AffectedEntities(input.Type, input.ID)
	return nil, AffectedEntitiesOutput{
		Direct:   affected.Direct,
		Indirect: affected.Indirect,
		All:      affected.All,
	}, nil
}

func (s *Server) handleDependencyChain(ctx context.Context, req *sdk.CallToolRequest, input EntityRefInput) (*sdk.CallToolResult, DependencyChainOutput, error) {
	if input.Type == "" || input.ID == "" {
		return nil, DependencyChainOutput{}, fmt.Errorf("type and id are required")
	}
	chain := s.world.Analyzer.DependencyChain(input.Type, input.ID)
	output := make([]EntityOutput, 0, len(chain))
	for _, e := range chain {
		output = append(output, entityOutput(e))
	}
	return nil, DependencyChainOutput{Chain: output}, nil
}

func (s *Server) handleValidateWorld(ctx context.Context, req *sdk.CallToolRequest, input ValidateWorldInput) (*sdk.CallToolResult, ValidateWorldOutput, error) {
	report, err := validate.Run(s.world)
	if err != nil {
		return nil, ValidateWorldOutput{}, err
	}
	return nil, ValidateWorldOutput{Valid: report.Valid(), Issues: report.Issues}, nil
}

func (s *Server) handleGraphStats(ctx context.Context, req *sdk.CallToolRequest, input GraphStatsInput) (*sdk.CallToolResult, GraphStatsOutput, error) {
	stats := s.world.Graph.Stats()
	return nil, GraphStatsOutput{
		Triplets:    stats.Triplets,
		Entities:    stats.Entities,
		EntityTypes: stats.EntityTypes,
		Predicates:  stats.Predicates,
	}, nil
}

func (s *Server) handleLootDrops(ctx context.Context, req *sdk.CallToolRequest, input LootDropsInput) (*sdk.CallToolResult, LootDropsOutput, error) {
	if input.SourceType == "" || input.SourceID == "" {
		return nil, LootDropsOutput{}, fmt.Errorf("source_type and source_id are required")
	}
	drops := s.world.Graph.LootDrops(input.SourceType, input.SourceID, input.ActorLevel)
	return nil, LootDropsOutput{Drops: drops}, nil
}

func entityOutput(e *store.Entity) EntityOutput {
	return EntityOutput{
		Type:          e.Type,
		ID:            e.ID,
		Data:          e.Data,
		Relationships: e.Relationships,
	}
}
