package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

// Return Types for Controllers
func Ok(ctx *gin.Context, data any) {
	ctx.JSON(http.StatusOK, models.ApiResponse[any]{
		Success: true,
		Status:  http.StatusOK,
		Data:    data,
	})
}

// Fail hands err to the error middleware, which picks the status from its code.
func Fail(ctx *gin.Context, err error) {
	ctx.Error(err)
	ctx.Abort()
}
