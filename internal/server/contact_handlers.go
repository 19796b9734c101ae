package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/errandhub-dev/errandhub/internal/tasks"
)

// ContactRequest is a contact/lead form submission
type ContactRequest struct {
	Name     string `form:"name" json:"name" binding:"required"`
	Email    string `form:"email" json:"email" binding:"required,email"`
	Phone    string `form:"phone" json:"phone"`
	Category string `form:"category" json:"category"`
	Message  string `form:"message" json:"message" binding:"required"`
}

func (s *Server) contactForm(c *gin.Context) {
	c.HTML(http.StatusOK, "contact.tmpl", s.pageData(c, gin.H{
		"Title":            "Get in touch",
		"SelectedCategory": c.Query("category"),
	}))
}

// submitContact validates the form and hands it to the worker queue. Page
// serving never blocks on downstream processing.
func (s *Server) submitContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Category != "" {
		if err := s.validator.Var(req.Category, "slug"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return
		}
		if _, ok := s.catalog.Category(req.Category); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
			return
		}
	}

	task, err := tasks.NewContactSubmitTask(tasks.ContactPayload{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Category: req.Category,
		Message:  req.Message,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build contact task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if _, err := s.enqueuer.Enqueue(task, asynq.Queue("default")); err != nil {
		s.logger.Error().Err(err).Msg("Failed to enqueue contact task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit, please try again"})
		return
	}

	s.logger.Info().
		Str("email", req.Email).
		Str("category", req.Category).
		Msg("Contact submission enqueued")

	if c.GetHeader("Accept") == "application/json" || c.ContentType() == "application/json" {
		c.JSON(http.StatusAccepted, gin.H{"status": "received"})
		return
	}
	c.HTML(http.StatusOK, "thanks.tmpl", s.pageData(c, gin.H{
		"Title": "Thanks!",
	}))
}
