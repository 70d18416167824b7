package github

import "github.com/shurcooL/githubv4"

// GraphQL query types

type repositoryQuery struct {
	Repository struct {
		ID githubv4.ID
	} `graphql:"repository(owner: $owner, name: $name)"`
}

type createIssueMutation struct {
	CreateIssue struct {
		Issue struct {
			Number githubv4.Int
			URL    githubv4.String
		}
	} `graphql:"createIssue(input: $input)"`
}

type searchIssueQuery struct {
	Search struct {
		Edges []struct {
			Node struct {
				Issue issueFragment `graphql:"... on Issue"`
			}
		}
	} `graphql:"search(query: $query, type: ISSUE, first: $first)"`
}

type issueFragment struct {
	ID     githubv4.ID
	Number githubv4.Int
	Title  githubv4.String
}

type addCommentMutation struct {
	AddComment struct {
		ClientMutationID githubv4.String
	} `graphql:"addComment(input: $input)"`
}

type closeIssueMutation struct {
	CloseIssue struct {
		ClientMutationID githubv4.String
	} `graphql:"closeIssue(input: $input)"`
}
