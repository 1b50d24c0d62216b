package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"voicetask/internal/domain"
)

type errorBody struct {
	Error   string `json:"error"`
	Raw     string `json:"raw,omitempty"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleGroups(c *gin.Context) {
	groups, err := s.filer.Groups(c.Request.Context())
	if err != nil {
		s.fail(c, "get-groups", err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (s *Server) handleSprints(c *gin.Context) {
	sprints, err := s.filer.Sprints(c.Request.Context())
	if err != nil {
		s.fail(c, "get-sprints", err)
		return
	}
	c.JSON(http.StatusOK, sprints)
}

func (s *Server) handleSendToTeams(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, errorBody{Error: "Only POST allowed"})
		return
	}

	sub, err := decodeSubmission(c.Request.Body)
	if err != nil {
		s.fail(c, "send-to-teams", err)
		return
	}

	result, err := s.filer.File(c.Request.Context(), sub)
	s.metrics.RecordFiling(err)
	if err != nil {
		s.fail(c, "send-to-teams", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// decodeSubmission treats an empty body as an empty object.
func decodeSubmission(body io.Reader) (domain.Submission, error) {
	var sub domain.Submission
	if body == nil {
		return sub, nil
	}
	raw, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil {
		return sub, &domain.Error{Kind: domain.ErrKindValidation, Message: "Failed to read request body", Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return sub, nil
	}
	if err := json.Unmarshal(raw, &sub); err != nil {
		return sub, &domain.Error{Kind: domain.ErrKindValidation, Message: "Invalid JSON body", Err: err}
	}
	return sub, nil
}

func (s *Server) fail(c *gin.Context, endpoint string, err error) {
	status, body := errorResponse(err)
	s.logger.Error(endpoint+" failed",
		"request_id", c.GetString(requestIDKey),
		"status", status,
		"error", err,
	)
	c.JSON(status, body)
}

// errorResponse maps a failure onto the stable {error, raw?, details?}
// shape. Only validation failures are the caller's fault.
func errorResponse(err error) (int, errorBody) {
	var classified *domain.Error
	if !errors.As(err, &classified) {
		return http.StatusInternalServerError, errorBody{Error: err.Error()}
	}

	body := errorBody{Error: classified.Message, Raw: classified.Raw, Details: classified.Details}
	if classified.Kind == domain.ErrKindValidation {
		return http.StatusBadRequest, body
	}
	if body.Details == "" && classified.Err != nil {
		body.Details = classified.Err.Error()
	}
	return http.StatusInternalServerError, body
}
