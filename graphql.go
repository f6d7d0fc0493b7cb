package repoboard

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/graphql-go/graphql"
)

// initGraphQLSchema builds the GraphQL schema with all types and resolvers.
func (s *Server) initGraphQLSchema() {
	pageInfoType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"hasNextPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"hasPreviousPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: graphql.Fields{},
	})

	s.addIssueFieldsToSchema(queryType, pageInfoType)
	s.addPullRequestFieldsToSchema(queryType, pageInfoType)
	s.addDiscussionFieldsToSchema(queryType, pageInfoType)

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
	if err != nil {
		panic(fmt.Sprintf("failed to create graphql schema: %v", err))
	}
	s.graphqlSchema = schema
}

func (s *Server) registerGraphQLRoutes() {
	s.mux.HandleFunc("POST /graphql", s.handleGraphQL)
}

// handleGraphQL executes a GraphQL query.
func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query         string                 `json:"query"`
		Variables     map[string]interface{} `json:"variables"`
		OperationName string                 `json:"operationName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
		return
	}

	s.metrics.RecordGraphQLRequest()

	result := graphql.Do(graphql.Params{
		Schema:         s.graphqlSchema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})

	writeJSON(w, http.StatusOK, result)
}

// connectionArgs are the Relay pagination arguments shared by all list
// fields.
func connectionArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"after":  &graphql.ArgumentConfig{Type: graphql.String},
		"before": &graphql.ArgumentConfig{Type: graphql.String},
		"first":  &graphql.ArgumentConfig{Type: graphql.Int},
		"last":   &graphql.ArgumentConfig{Type: graphql.Int},
	}
}

// pageArgsFromParams pulls after/before/first/last out of resolver params.
func pageArgsFromParams(p graphql.ResolveParams) PageArgs {
	var args PageArgs
	if v, ok := p.Args["after"].(string); ok {
		args.After = &v
	}
	if v, ok := p.Args["before"].(string); ok {
		args.Before = &v
	}
	if v, ok := p.Args["first"].(int); ok {
		args.First = &v
	}
	if v, ok := p.Args["last"].(int); ok {
		args.Last = &v
	}
	return args
}

// connectionType builds the Edge and Connection object types for a node
// type, following the Relay response shape.
func connectionType(name string, nodeType, pageInfoType *graphql.Object) *graphql.Object {
	edgeType := graphql.NewObject(graphql.ObjectConfig{
		Name: name + "Edge",
		Fields: graphql.Fields{
			"cursor": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"node":   &graphql.Field{Type: graphql.NewNonNull(nodeType)},
		},
	})
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name + "Connection",
		Fields: graphql.Fields{
			"edges":    &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(edgeType)))},
			"pageInfo": &graphql.Field{Type: graphql.NewNonNull(pageInfoType)},
		},
	})
}

// connectionToGQL renders a connection with the given per-node mapper.
// Edge order preserves what the loader decided (always ascending keys).
func connectionToGQL[T Record](conn *Connection[T], node func(T) map[string]interface{}) map[string]interface{} {
	edges := make([]map[string]interface{}, 0, len(conn.Edges))
	for _, e := range conn.Edges {
		edges = append(edges, map[string]interface{}{
			"cursor": e.Cursor,
			"node":   node(e.Node),
		})
	}
	return map[string]interface{}{
		"edges": edges,
		"pageInfo": map[string]interface{}{
			"hasNextPage":     conn.PageInfo.HasNextPage,
			"hasPreviousPage": conn.PageInfo.HasPreviousPage,
		},
	}
}

// countToGQL converts a record count to the response integer type.
// Realistic lists never get near the limit; the guard keeps an oversized
// count from wrapping silently.
func countToGQL(n int) (int, error) {
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("count %d exceeds the response integer range", n)
	}
	return n, nil
}

func timeToGQL(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// timePtrToGQL renders an optional timestamp, nil when unset.
func timePtrToGQL(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return timeToGQL(*t)
}

// recordCoordArgs are the owner/repo/number arguments of single-record
// lookup fields.
func recordCoordArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"owner":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		"repo":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		"number": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
	}
}

func recordCoordsFromParams(p graphql.ResolveParams) (owner, repo string, number int) {
	owner, _ = p.Args["owner"].(string)
	repo, _ = p.Args["repo"].(string)
	number, _ = p.Args["number"].(int)
	return owner, repo, number
}

// statFilter holds the predicates shared by the stat queries: the stat
// path always materializes the full partition and filters in memory; it
// never narrows the scan bounds of the cursor loader.
type statFilter struct {
	assignee *string
	author   *string
	repo     *string
	begin    *time.Time // inclusive
	end      *time.Time // exclusive
}

func statFilterFromParams(p graphql.ResolveParams) statFilter {
	var f statFilter
	filter, ok := p.Args["filter"].(map[string]interface{})
	if !ok {
		return f
	}
	if v, ok := filter["assignee"].(string); ok {
		f.assignee = &v
	}
	if v, ok := filter["author"].(string); ok {
		f.author = &v
	}
	if v, ok := filter["repo"].(string); ok {
		f.repo = &v
	}
	if v, ok := filter["begin"].(time.Time); ok {
		f.begin = &v
	}
	if v, ok := filter["end"].(time.Time); ok {
		f.end = &v
	}
	return f
}

func (f statFilter) matchesMeta(author, repo string, createdAt time.Time) bool {
	if f.author != nil && author != *f.author {
		return false
	}
	if f.repo != nil && repo != *f.repo {
		return false
	}
	if f.begin != nil && createdAt.Before(*f.begin) {
		return false
	}
	if f.end != nil && !createdAt.Before(*f.end) {
		return false
	}
	return true
}

// statFilterInput builds the filter input object for a stat query.
// withAssignee adds the assignee predicate for types that carry one.
func statFilterInput(name string, withAssignee bool) *graphql.InputObject {
	fields := graphql.InputObjectConfigFieldMap{
		"author": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"repo":   &graphql.InputObjectFieldConfig{Type: graphql.String},
		"begin":  &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
		"end":    &graphql.InputObjectFieldConfig{Type: graphql.DateTime},
	}
	if withAssignee {
		fields["assignee"] = &graphql.InputObjectFieldConfig{Type: graphql.String}
	}
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   name,
		Fields: fields,
	})
}
