package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/errandhub-dev/errandhub/internal/catalog"
	"github.com/errandhub-dev/errandhub/internal/models"
)

func (s *Server) home(c *gin.Context) {
	c.HTML(http.StatusOK, "index.tmpl", s.pageData(c, gin.H{
		"Title": "Errands, done.",
	}))
}

func (s *Server) about(c *gin.Context) {
	c.HTML(http.StatusOK, "about.tmpl", s.pageData(c, gin.H{
		"Title": "About ErrandHub",
	}))
}

func (s *Server) categoryIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "categories.tmpl", s.pageData(c, gin.H{
		"Title": "Browse services",
	}))
}

func (s *Server) categoryDetail(c *gin.Context) {
	category, ok := s.catalog.Category(c.Param("slug"))
	if !ok {
		c.HTML(http.StatusNotFound, "notfound.tmpl", s.pageData(c, gin.H{
			"Title": "Not found",
		}))
		return
	}
	c.HTML(http.StatusOK, "category.tmpl", s.pageData(c, gin.H{
		"Title":    category.Name,
		"Category": category,
	}))
}

func (s *Server) serviceDetail(c *gin.Context) {
	category, service, ok := s.catalog.Service(c.Param("category"), c.Param("slug"))
	if !ok {
		c.HTML(http.StatusNotFound, "notfound.tmpl", s.pageData(c, gin.H{
			"Title": "Not found",
		}))
		return
	}
	c.HTML(http.StatusOK, "service.tmpl", s.pageData(c, gin.H{
		"Title":    service.Name,
		"Category": category,
		"Service":  service,
	}))
}

// setTheme toggles the light/dark theme cookie and bounces back to the
// referring page
func (s *Server) setTheme(c *gin.Context) {
	theme := c.PostForm("theme")
	if theme != "dark" && theme != "light" {
		theme = "light"
	}
	c.SetCookie(themeCookie, theme, cookieMaxAge, "/", "", false, false)
	redirectBack(c)
}

func (s *Server) account(c *gin.Context) {
	state := MustSession(c)
	profile := catalog.Profile{
		ID:    state.User.ID,
		Name:  state.User.Name,
		Email: state.User.Email,
		Role:  state.User.Role,
		Image: state.User.Image,
	}
	c.HTML(http.StatusOK, "account.tmpl", s.pageData(c, gin.H{
		"Title":   "Your account",
		"Profile": profile,
	}))
}

func (s *Server) adminLeads(c *gin.Context) {
	var leads []models.ContactSubmission
	if err := s.db.Order("created_at desc").Limit(100).Find(&leads).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load leads")
		c.HTML(http.StatusInternalServerError, "error.tmpl", s.pageData(c, gin.H{
			"Title": "Something went wrong",
		}))
		return
	}
	c.HTML(http.StatusOK, "leads.tmpl", s.pageData(c, gin.H{
		"Title": "Recent leads",
		"Leads": leads,
	}))
}
