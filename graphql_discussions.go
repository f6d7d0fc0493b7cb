package repoboard

import (
	"github.com/graphql-go/graphql"
)

// addDiscussionFieldsToSchema adds the Discussion type and its query
// fields.
func (s *Server) addDiscussionFieldsToSchema(queryType, pageInfoType *graphql.Object) {
	discussionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Discussion",
		Fields: graphql.Fields{
			"owner":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"repo":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"number":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"title":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"author":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"body":       &graphql.Field{Type: graphql.String},
			"url":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"category":   &graphql.Field{Type: graphql.String},
			"isAnswered": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"createdAt":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"updatedAt":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	discussionConnectionType := connectionType("Discussion", discussionType, pageInfoType)

	queryType.AddFieldConfig("discussions", &graphql.Field{
		Type: graphql.NewNonNull(discussionConnectionType),
		Args: connectionArgs(),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			s.metrics.RecordConnectionLoad("discussions")
			conn, err := LoadConnection(pageArgsFromParams(p), s.db.ScanDiscussions)
			if err != nil {
				return nil, err
			}
			return connectionToGQL(conn, discussionToGQL), nil
		},
	})

	queryType.AddFieldConfig("discussion", &graphql.Field{
		Type: discussionType,
		Args: recordCoordArgs(),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			owner, repo, number := recordCoordsFromParams(p)
			disc, ok, err := s.db.GetDiscussion(owner, repo, number)
			if err != nil || !ok {
				return nil, err
			}
			return discussionToGQL(disc), nil
		},
	})

	discussionStatType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DiscussionStat",
		Fields: graphql.Fields{
			"totalCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	queryType.AddFieldConfig("discussionStat", &graphql.Field{
		Type: graphql.NewNonNull(discussionStatType),
		Args: graphql.FieldConfigArgument{
			"filter": &graphql.ArgumentConfig{Type: statFilterInput("DiscussionStatFilter", false)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			filter := statFilterFromParams(p)
			discussions, err := collectAll(s.db.ScanDiscussions)
			if err != nil {
				return nil, err
			}
			total := 0
			for _, disc := range discussions {
				if filter.matchesMeta(disc.Author, disc.Repo, disc.CreatedAt) {
					total++
				}
			}
			count, err := countToGQL(total)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{"totalCount": count}, nil
		},
	})
}

// discussionToGQL converts a Discussion to a map with camelCase keys for
// GraphQL resolvers.
func discussionToGQL(disc Discussion) map[string]interface{} {
	return map[string]interface{}{
		"owner":      disc.Owner,
		"repo":       disc.Repo,
		"number":     disc.Number,
		"title":      disc.Title,
		"author":     disc.Author,
		"body":       disc.Body,
		"url":        disc.URL,
		"category":   disc.Category,
		"isAnswered": disc.IsAnswered,
		"createdAt":  timeToGQL(disc.CreatedAt),
		"updatedAt":  timeToGQL(disc.UpdatedAt),
	}
}
