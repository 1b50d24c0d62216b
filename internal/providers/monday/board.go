// Package monday reads board catalogs from and files items on monday.com
// through its GraphQL API.
package monday

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/machinebox/graphql"

	"voicetask/internal/domain"
	"voicetask/internal/ports"
)

const defaultAPIURL = "https://api.monday.com/v2"

// Column ids on the task board.
const (
	columnStatus   = "status"
	columnPriority = "color_mkr0gap6"
	columnCreated  = "date4"
	columnSprint   = "board_relation_mks6vh7p"
	columnOwner    = "person"
)

// Config identifies the account and boards to talk to.
type Config struct {
	Token         string
	APIURL        string
	TaskBoardID   string
	SprintBoardID string
	SprintLimit   int
	HTTPClient    *http.Client
}

// Board is a monday.com client bound to one task board and one sprint
// board. It is cheap to build and meant to live for a single request.
type Board struct {
	cfg    Config
	client *graphql.Client
}

// NewBoard returns MissingConfiguration when no API token is set.
func NewBoard(cfg Config) (*Board, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, domain.MissingConfiguration("Missing MONDAY_TOKEN env var")
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.SprintLimit <= 0 {
		cfg.SprintLimit = 200
	}

	var opts []graphql.ClientOption
	if cfg.HTTPClient != nil {
		opts = append(opts, graphql.WithHTTPClient(cfg.HTTPClient))
	}
	return &Board{cfg: cfg, client: graphql.NewClient(cfg.APIURL, opts...)}, nil
}

const groupsQuery = `
query ($boardId: [ID!]) {
  boards(ids: $boardId) {
    id
    name
    groups {
      id
      title
      color
      position
    }
  }
}`

func (b *Board) Groups(ctx context.Context) ([]domain.Group, error) {
	req := b.request(groupsQuery)
	req.Var("boardId", []string{b.cfg.TaskBoardID})

	var resp struct {
		Boards []struct {
			Groups []domain.Group `json:"groups"`
		} `json:"boards"`
	}
	if err := b.client.Run(ctx, req, &resp); err != nil {
		return nil, domain.UpstreamCallFailure("failed to load board groups", "", err)
	}
	if len(resp.Boards) == 0 {
		return nil, domain.InvalidUpstreamPayload("task board not found", b.cfg.TaskBoardID)
	}
	groups := resp.Boards[0].Groups
	if groups == nil {
		groups = []domain.Group{}
	}
	return groups, nil
}

const sprintsQuery = `
query ($boardId: [ID!], $limit: Int!) {
  boards(ids: $boardId) {
    items_page(limit: $limit) {
      items {
        id
        name
      }
    }
  }
}`

func (b *Board) Sprints(ctx context.Context) ([]domain.Sprint, error) {
	req := b.request(sprintsQuery)
	req.Var("boardId", []string{b.cfg.SprintBoardID})
	req.Var("limit", b.cfg.SprintLimit)

	var resp struct {
		Boards []struct {
			ItemsPage struct {
				Items []domain.Sprint `json:"items"`
			} `json:"items_page"`
		} `json:"boards"`
	}
	if err := b.client.Run(ctx, req, &resp); err != nil {
		return nil, domain.UpstreamCallFailure("failed to load sprints", "", err)
	}
	if len(resp.Boards) == 0 {
		return nil, domain.InvalidUpstreamPayload("sprint board not found", b.cfg.SprintBoardID)
	}
	sprints := resp.Boards[0].ItemsPage.Items
	if sprints == nil {
		sprints = []domain.Sprint{}
	}
	return sprints, nil
}

const createItemMutation = `
mutation ($boardId: ID!, $groupId: String!, $itemName: String!, $cols: JSON!) {
  create_item(
    board_id: $boardId,
    group_id: $groupId,
    item_name: $itemName,
    column_values: $cols
  ) {
    id
    name
  }
}`

// CreateItem files item on the task board and returns the new item id.
func (b *Board) CreateItem(ctx context.Context, item ports.BoardItem) (string, error) {
	cols, err := columnValues(item)
	if err != nil {
		return "", err
	}

	req := b.request(createItemMutation)
	req.Var("boardId", b.cfg.TaskBoardID)
	req.Var("groupId", item.GroupID)
	req.Var("itemName", item.Name)
	req.Var("cols", cols)

	var resp struct {
		CreateItem *struct {
			ID string `json:"id"`
		} `json:"create_item"`
	}
	if err := b.client.Run(ctx, req, &resp); err != nil {
		return "", domain.UpstreamCallFailure("failed to create board item", "", err)
	}
	if resp.CreateItem == nil || resp.CreateItem.ID == "" {
		return "", domain.InvalidUpstreamPayload("board did not return a created item", "")
	}
	return resp.CreateItem.ID, nil
}

func (b *Board) request(query string) *graphql.Request {
	req := graphql.NewRequest(query)
	req.Header.Set("Authorization", b.cfg.Token)
	req.Header.Set("API-Version", "2024-10")
	return req
}

type label struct {
	Label string `json:"label"`
}

type person struct {
	ID   any    `json:"id"`
	Kind string `json:"kind"`
}

// columnValues encodes the column_values JSON string the mutation expects.
func columnValues(item ports.BoardItem) (string, error) {
	cols := map[string]any{
		columnStatus:   label{Label: "Sprint"},
		columnPriority: label{Label: item.PriorityLabel},
		columnCreated:  map[string]string{"date": item.CreatedDate},
		columnSprint:   map[string]any{"item_ids": []any{numericID(item.SprintID)}},
		columnOwner: map[string]any{
			"personsAndTeams": []person{{ID: numericID(item.UserID), Kind: "person"}},
		},
	}
	encoded, err := json.Marshal(cols)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// numericID sends numeric ids as JSON numbers, which is what the board
// expects for people and linked items.
func numericID(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
