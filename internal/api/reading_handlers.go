package api

import (
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/service"
	"github.com/gin-gonic/gin"
)

func GetToday(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		today, err := service.EffectiveDate(c.Query("date"))
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid date")
			return
		}
		view, err := service.TodaysReadings(c.Request.Context(), app.Repos(), user, c.Param("id"), today)
		if err != nil {
			HandleEngineError(c, app.Logger(), err, "Failed to resolve readings")
			return
		}
		HandleSuccess(c, app.Logger(), view, nil)
	}
}

func PostToggle(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var req service.ToggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateToggleRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}
		today, err := service.EffectiveDate(req.Date)
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid date")
			return
		}

		rec, added, err := service.ToggleCompletion(c.Request.Context(), app.Repos(), user, c.Param("id"), today, &req)
		if err != nil {
			HandleEngineError(c, app.Logger(), err, "Failed to toggle completion")
			return
		}
		HandleSuccess(c, app.Logger(), rec, map[string]any{"added": added})
	}
}

func PostAdvance(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var req service.AdvanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateAdvanceRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}
		today, err := service.EffectiveDate(req.Date)
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid date")
			return
		}

		up, outcome, err := service.Advance(c.Request.Context(), app.Repos(), user, c.Param("id"), today, &req)
		if err != nil {
			HandleEngineError(c, app.Logger(), err, "Failed to advance")
			return
		}
		HandleSuccess(c, app.Logger(), up, map[string]any{
			"wrapped":        outcome.Wrapped,
			"plan_completed": outcome.PlanCompleted,
		})
	}
}
