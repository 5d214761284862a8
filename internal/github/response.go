package github

import (
	"fmt"

	"unanswered-notifier/pkg/models"
)

// repositoryResponse mirrors the shape requested by query.graphql
type repositoryResponse struct {
	Data *struct {
		Repository *struct {
			Issues       *threadConnection `json:"issues"`
			PullRequests *threadConnection `json:"pullRequests"`
		} `json:"repository"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

type threadConnection struct {
	Edges []struct {
		Node *threadNode `json:"node"`
	} `json:"edges"`
}

type threadNode struct {
	Title    string `json:"title"`
	Comments *struct {
		Edges []struct {
			Node *models.Comment `json:"node"`
		} `json:"edges"`
	} `json:"comments"`
}

func (r *repositoryResponse) threads() (*models.RepositoryThreads, error) {
	if r.Data == nil || r.Data.Repository == nil {
		if len(r.Errors) > 0 {
			return nil, graphqlErrors(r.Errors)
		}
		return nil, fmt.Errorf("%w: missing data.repository", ErrUnexpectedResponse)
	}

	repo := r.Data.Repository
	issues, err := repo.Issues.threads("issues")
	if err != nil {
		return nil, err
	}
	pullRequests, err := repo.PullRequests.threads("pullRequests")
	if err != nil {
		return nil, err
	}
	return &models.RepositoryThreads{Issues: issues, PullRequests: pullRequests}, nil
}

func (c *threadConnection) threads(field string) ([]models.Thread, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: missing data.repository.%s", ErrUnexpectedResponse, field)
	}

	threads := make([]models.Thread, 0, len(c.Edges))
	for i, edge := range c.Edges {
		if edge.Node == nil {
			return nil, fmt.Errorf("%w: %s.edges[%d] has no node", ErrUnexpectedResponse, field, i)
		}
		if edge.Node.Comments == nil {
			return nil, fmt.Errorf("%w: %s.edges[%d].node has no comments", ErrUnexpectedResponse, field, i)
		}

		thread := models.Thread{Title: edge.Node.Title}
		for j, ce := range edge.Node.Comments.Edges {
			if ce.Node == nil {
				return nil, fmt.Errorf("%w: %s.edges[%d].node.comments.edges[%d] has no node", ErrUnexpectedResponse, field, i, j)
			}
			thread.Comments = append(thread.Comments, *ce.Node)
		}
		threads = append(threads, thread)
	}
	return threads, nil
}
