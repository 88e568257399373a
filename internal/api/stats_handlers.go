package api

import (
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/service"
	"github.com/gin-gonic/gin"
)

func GetStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		today, err := service.EffectiveDate(c.Query("date"))
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid date")
			return
		}
		stats, err := service.ComputeUserStats(c.Request.Context(), app.Repos(), user, today)
		if err != nil {
			HandleEngineError(c, app.Logger(), err, "Failed to compute stats")
			return
		}
		HandleSuccess(c, app.Logger(), stats, nil)
	}
}

func GetProfile(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		profile, err := service.GetProfile(c.Request.Context(), app.Repos(), user)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch profile")
			return
		}
		HandleSuccess(c, app.Logger(), profile, nil)
	}
}

func PutProfile(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var req service.ProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateProfileRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		profile, err := service.UpdateProfile(c.Request.Context(), app.Repos(), user, &req)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to update profile")
			return
		}
		HandleSuccess(c, app.Logger(), profile, nil)
	}
}

func GetVerse(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), app.Verse().Today(c.Request.Context()), nil)
	}
}
