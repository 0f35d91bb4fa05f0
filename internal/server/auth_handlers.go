package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok, err := s.authManager.Verify(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication backend unavailable"})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, jti, err := s.tokens.Issue(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	s.sessions.CreateWithID(jti, req.Username, int64(s.tokens.TTL().Seconds()))
	c.JSON(http.StatusOK, loginResponse{Token: token})
}

// handleLogout revokes the bearer token presented with the request so it
// can no longer pass requireAuth, even though the JWT itself would
// otherwise still verify until it expires.
func (s *Server) handleLogout(c *gin.Context) {
	jti, ok := c.Get("jti")
	if ok {
		s.sessions.Delete(jti.(string))
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
