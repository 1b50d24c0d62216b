// Package filing turns a spoken task into a board item and a chat
// announcement: vocabulary fixes, model enrichment, item creation and
// notification, in that order.
package filing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voicetask/internal/domain"
	"voicetask/internal/ports"
)

// BoardFactory builds a board client for one request.
type BoardFactory func() (ports.Board, error)

type Service struct {
	rules    ports.TextRules
	enricher ports.Enricher
	newBoard BoardFactory
	notifier ports.Notifier
	now      func() time.Time
	logger   *slog.Logger
}

func NewService(rules ports.TextRules, enricher ports.Enricher, newBoard BoardFactory, notifier ports.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		rules:    rules,
		enricher: enricher,
		newBoard: newBoard,
		notifier: notifier,
		now:      time.Now,
		logger:   logger,
	}
}

var priorityLabels = map[string]string{
	"low":    "Low",
	"medium": "Medium",
	"high":   "High",
}

// PriorityLabel maps a model priority onto the board's priority column.
// Anything unrecognized files as Low.
func PriorityLabel(priority string) string {
	if label, ok := priorityLabels[strings.ToLower(strings.TrimSpace(priority))]; ok {
		return label
	}
	return "Low"
}

// File runs the whole pipeline for one submission. Configuration is
// checked before any upstream call so a misconfigured deployment never
// leaves an unannounced item behind.
func (s *Service) File(ctx context.Context, sub domain.Submission) (domain.SubmissionResult, error) {
	if strings.TrimSpace(sub.Text) == "" {
		return domain.SubmissionResult{}, domain.ValidationError("Missing text field")
	}
	if !s.notifier.Configured() {
		return domain.SubmissionResult{}, domain.MissingConfiguration("Teams WebhookURL not configured")
	}
	board, err := s.newBoard()
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	text := sub.Text
	if s.rules != nil {
		if text, err = s.rules.Apply(text); err != nil {
			return domain.SubmissionResult{}, fmt.Errorf("failed to apply vocabulary: %w", err)
		}
	}

	task, enriched, err := s.enricher.Enrich(ctx, text)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if strings.TrimSpace(task.Description) == "" {
		return domain.SubmissionResult{}, domain.InvalidUpstreamPayload("Gemini returned invalid JSON", enriched)
	}
	s.logger.Debug("task enriched", "type", task.Type, "priority", task.Priority)

	itemName := task.ItemName()
	itemID, err := board.CreateItem(ctx, ports.BoardItem{
		GroupID:       sub.GroupID,
		Name:          itemName,
		PriorityLabel: PriorityLabel(task.Priority),
		SprintID:      sub.Sprint,
		UserID:        sub.UserID,
		CreatedDate:   s.now().UTC().Format("2006-01-02"),
	})
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	s.logger.Info("board item created", "item_id", itemID, "group_id", sub.GroupID)

	message := announcement(itemName, sub.Username, task.Priority, itemID)
	if err := s.notifier.Notify(ctx, message); err != nil {
		s.logger.Error("item created but chat notification failed", "item_id", itemID, "error", err)
		return domain.SubmissionResult{}, withCreatedItem(err, itemID)
	}

	return domain.SubmissionResult{
		OK:            true,
		CreatedItemID: itemID,
		SentToTeams:   true,
		EnrichedText:  enriched,
	}, nil
}

func announcement(itemName string, username string, priority string, itemID string) string {
	return fmt.Sprintf("New task created in Monday:\n\n%s\n\nUser: %s\n\nPriority: %s\n\nItem ID: %s",
		itemName, username, priority, itemID)
}

// withCreatedItem records the orphaned item id on a notification failure.
func withCreatedItem(err error, itemID string) error {
	note := "created item " + itemID
	var classified *domain.Error
	if !errors.As(err, &classified) {
		return domain.UpstreamCallFailure("Failed to send to Teams", note, err)
	}
	copied := *classified
	if copied.Details == "" {
		copied.Details = note
	} else {
		copied.Details = copied.Details + " (" + note + ")"
	}
	return &copied
}

func (s *Service) Groups(ctx context.Context) ([]domain.Group, error) {
	board, err := s.newBoard()
	if err != nil {
		return nil, err
	}
	return board.Groups(ctx)
}

func (s *Service) Sprints(ctx context.Context) ([]domain.Sprint, error) {
	board, err := s.newBoard()
	if err != nil {
		return nil, err
	}
	return board.Sprints(ctx)
}
