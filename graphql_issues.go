package repoboard

import (
	"slices"

	"github.com/graphql-go/graphql"
)

// addIssueFieldsToSchema adds the Issue type and its query fields.
func (s *Server) addIssueFieldsToSchema(queryType, pageInfoType *graphql.Object) {
	issueType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Issue",
		Fields: graphql.Fields{
			"owner":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"repo":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"number":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"title":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"author":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"body":      &graphql.Field{Type: graphql.String},
			"state":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"assignees": &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
			"labels":    &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
			"url":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"closedAt":  &graphql.Field{Type: graphql.String},
		},
	})

	issueConnectionType := connectionType("Issue", issueType, pageInfoType)

	queryType.AddFieldConfig("issues", &graphql.Field{
		Type: graphql.NewNonNull(issueConnectionType),
		Args: connectionArgs(),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			s.metrics.RecordConnectionLoad("issues")
			conn, err := LoadConnection(pageArgsFromParams(p), s.db.ScanIssues)
			if err != nil {
				return nil, err
			}
			return connectionToGQL(conn, issueToGQL), nil
		},
	})

	queryType.AddFieldConfig("issue", &graphql.Field{
		Type: issueType,
		Args: recordCoordArgs(),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			owner, repo, number := recordCoordsFromParams(p)
			issue, ok, err := s.db.GetIssue(owner, repo, number)
			if err != nil || !ok {
				return nil, err
			}
			return issueToGQL(issue), nil
		},
	})

	issueStatType := graphql.NewObject(graphql.ObjectConfig{
		Name: "IssueStat",
		Fields: graphql.Fields{
			"openIssueCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	queryType.AddFieldConfig("issueStat", &graphql.Field{
		Type: graphql.NewNonNull(issueStatType),
		Args: graphql.FieldConfigArgument{
			"filter": &graphql.ArgumentConfig{Type: statFilterInput("IssueStatFilter", true)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			filter := statFilterFromParams(p)
			issues, err := collectAll(s.db.ScanIssues)
			if err != nil {
				return nil, err
			}
			open := 0
			for _, issue := range issues {
				if filterMatchesIssue(filter, issue) && issue.State == "OPEN" {
					open++
				}
			}
			count, err := countToGQL(open)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"openIssueCount": count}, nil
		},
	})
}

func filterMatchesIssue(f statFilter, issue Issue) bool {
	if !f.matchesMeta(issue.Author, issue.Repo, issue.CreatedAt) {
		return false
	}
	if f.assignee != nil && !slices.Contains(issue.Assignees, *f.assignee) {
		return false
	}
	return true
}

// issueToGQL converts an Issue to a map with camelCase keys for GraphQL
// resolvers.
func issueToGQL(issue Issue) map[string]interface{} {
	return map[string]interface{}{
		"owner":     issue.Owner,
		"repo":      issue.Repo,
		"number":    issue.Number,
		"title":     issue.Title,
		"author":    issue.Author,
		"body":      issue.Body,
		"state":     issue.State,
		"assignees": issue.Assignees,
		"labels":    issue.Labels,
		"url":       issue.URL,
		"createdAt": timeToGQL(issue.CreatedAt),
		"updatedAt": timeToGQL(issue.UpdatedAt),
		"closedAt":  timePtrToGQL(issue.ClosedAt),
	}
}
