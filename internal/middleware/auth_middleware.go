package middleware

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/domain"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ContextUserID     = "user_id"
	ContextEmployeeID = "employee_id"
	ContextRole       = "role"
	ContextPrincipal  = "principal"

	AccessTokenCookie = "access_token"
)

// AuthMiddleware accepts a Bearer header or the access_token cookie and
// resolves the caller into a domain.Principal.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			response.AbortWithError(c, autherrors.ErrTokenNotFound)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.AbortWithError(c, autherrors.ErrTokenExpired)
				return
			}
			response.AbortWithError(c, autherrors.ErrInvalidToken)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.AbortWithError(c, autherrors.ErrInvalidToken)
			return
		}

		userID, _ := claims["user_id"].(string)
		employeeID, _ := claims["employee_id"].(string)
		role, _ := claims["role"].(string)

		empID, err := uuid.Parse(employeeID)
		if userID == "" || err != nil || !domain.Role(role).Valid() {
			response.AbortWithError(c, autherrors.ErrInvalidToken)
			return
		}

		p := domain.Principal{ID: empID, Role: domain.Role(role)}

		c.Set(ContextUserID, userID)
		c.Set(ContextEmployeeID, employeeID)
		c.Set(ContextRole, role)
		c.Set(ContextPrincipal, p)

		ctx := c.Request.Context()
		ctx = contextutil.WithUserID(ctx, userID)
		ctx = contextutil.WithPrincipal(ctx, p)
		ctx = contextutil.WithLogger(ctx, contextutil.GetLogger(ctx, zap.L()).With(
			zap.String("user_id", userID),
			zap.String("employee_id", employeeID),
		))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetPrincipal returns the caller resolved by AuthMiddleware.
func GetPrincipal(c *gin.Context) (domain.Principal, bool) {
	v, exists := c.Get(ContextPrincipal)
	if !exists {
		return contextutil.GetPrincipal(c.Request.Context())
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

func RequireRole(allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok || !slices.Contains(allowed, p.Role) {
			response.AbortWithError(c, autherrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
