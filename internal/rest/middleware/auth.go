package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/utils"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

const (
	UserIDKey   = "userID"
	PlayerIDKey = "playerID"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		result := models.ApiResponse[any]{Status: http.StatusUnauthorized}

		token := utils.GetBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			result.Message = "authorization header is required"
			c.AbortWithStatusJSON(http.StatusUnauthorized, result)
			return
		}

		claims, err := utils.ValidateJwTTokenWithClaims(token)
		if err != nil {
			result.Message = err.Error()
			c.AbortWithStatusJSON(http.StatusUnauthorized, result)
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(PlayerIDKey, claims.PlayerID)
		c.Next()
	}
}
