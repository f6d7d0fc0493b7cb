package repoboard

import (
	"slices"

	"github.com/graphql-go/graphql"
)

// addPullRequestFieldsToSchema adds the PullRequest type and its query
// fields.
func (s *Server) addPullRequestFieldsToSchema(queryType, pageInfoType *graphql.Object) {
	pullRequestType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PullRequest",
		Fields: graphql.Fields{
			"owner":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"repo":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"number":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"title":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"author":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"state":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"assignees": &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
			"reviewers": &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
			"url":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"mergedAt":  &graphql.Field{Type: graphql.String},
		},
	})

	pullRequestConnectionType := connectionType("PullRequest", pullRequestType, pageInfoType)

	queryType.AddFieldConfig("pullRequests", &graphql.Field{
		Type: graphql.NewNonNull(pullRequestConnectionType),
		Args: connectionArgs(),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			s.metrics.RecordConnectionLoad("pullRequests")
			conn, err := LoadConnection(pageArgsFromParams(p), s.db.ScanPullRequests)
			if err != nil {
				return nil, err
			}
			return connectionToGQL(conn, pullRequestToGQL), nil
		},
	})

	queryType.AddFieldConfig("pullRequest", &graphql.Field{
		Type: pullRequestType,
		Args: recordCoordArgs(),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			owner, repo, number := recordCoordsFromParams(p)
			pr, ok, err := s.db.GetPullRequest(owner, repo, number)
			if err != nil || !ok {
				return nil, err
			}
			return pullRequestToGQL(pr), nil
		},
	})

	pullRequestStatType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PullRequestStat",
		Fields: graphql.Fields{
			"openPrCount":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"mergedPrCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	queryType.AddFieldConfig("pullRequestStat", &graphql.Field{
		Type: graphql.NewNonNull(pullRequestStatType),
		Args: graphql.FieldConfigArgument{
			"filter": &graphql.ArgumentConfig{Type: statFilterInput("PullRequestStatFilter", true)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			filter := statFilterFromParams(p)
			prs, err := collectAll(s.db.ScanPullRequests)
			if err != nil {
				return nil, err
			}
			open, merged := 0, 0
			for _, pr := range prs {
				if !filterMatchesPullRequest(filter, pr) {
					continue
				}
				switch pr.State {
				case "OPEN":
					open++
				case "MERGED":
					merged++
				}
			}
			openCount, err := countToGQL(open)
			if err != nil {
				return nil, err
			}
			mergedCount, err := countToGQL(merged)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"openPrCount":   openCount,
				"mergedPrCount": mergedCount,
			}, nil
		},
	})
}

func filterMatchesPullRequest(f statFilter, pr PullRequest) bool {
	if !f.matchesMeta(pr.Author, pr.Repo, pr.CreatedAt) {
		return false
	}
	if f.assignee != nil && !slices.Contains(pr.Assignees, *f.assignee) {
		return false
	}
	return true
}

// pullRequestToGQL converts a PullRequest to a map with camelCase keys
// for GraphQL resolvers.
func pullRequestToGQL(pr PullRequest) map[string]interface{} {
	return map[string]interface{}{
		"owner":     pr.Owner,
		"repo":      pr.Repo,
		"number":    pr.Number,
		"title":     pr.Title,
		"author":    pr.Author,
		"state":     pr.State,
		"assignees": pr.Assignees,
		"reviewers": pr.Reviewers,
		"url":       pr.URL,
		"createdAt": timeToGQL(pr.CreatedAt),
		"updatedAt": timeToGQL(pr.UpdatedAt),
		"mergedAt":  timePtrToGQL(pr.MergedAt),
	}
}
