package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"habit-tracker/internal/model"
	"habit-tracker/internal/service"
)

const (
	headerRequestID = "X-Request-ID"
	contextKeyUser  = "user"
	contextKeyReqID = "request_id"
)

// Authenticator checks basic-auth credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
}

// requestID tags every request with an ID, reusing the caller's when present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(contextKeyReqID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[info] http %s %s status=%d dur=%s req=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond), c.GetString(contextKeyReqID))
	}
}

// RequireUser authenticates with HTTP basic auth and stores the user in the context.
func RequireUser(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="habit-tracker"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "authorization required"})
			return
		}
		user, err := auth.Authenticate(c.Request.Context(), username, password)
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.Header("WWW-Authenticate", `Basic realm="habit-tracker"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
			return
		}
		if err != nil {
			log.Printf("[error] authenticate %s: %v", username, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}
		c.Set(contextKeyUser, user)
		c.Next()
	}
}

// RequireTrigger allows only roles that may fire jobs by hand.
func RequireTrigger() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.CanTrigger() {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "developer role required"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *model.User {
	v, ok := c.Get(contextKeyUser)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
