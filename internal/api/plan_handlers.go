package api

import (
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/service"
	"github.com/gin-gonic/gin"
)

func GetPlans(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := app.Repos().Plans.ListPlans(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch plans")
			return
		}
		visible := make([]internal.ReadingPlan, 0, len(plans))
		for _, p := range plans {
			if p.IsActive {
				visible = append(visible, p)
			}
		}
		HandleSuccess(c, app.Logger(), visible, nil)
	}
}

func GetPlan(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := app.Repos().Plans.GetPlan(c.Request.Context(), c.Param("id"))
		if err != nil {
			HandleEngineError(c, app.Logger(), err, "Failed to fetch plan")
			return
		}
		HandleSuccess(c, app.Logger(), p, nil)
	}
}

func PostEnroll(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		today, err := service.EffectiveDate(c.Query("date"))
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid date")
			return
		}
		up, err := service.EnrollInPlan(c.Request.Context(), app.Repos(), user, c.Param("id"), today)
		if err != nil {
			HandleEngineError(c, app.Logger(), err, "Failed to enroll")
			return
		}
		HandleSuccess(c, app.Logger(), up, nil)
	}
}

func GetUserPlans(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		active, archived, err := service.ListEnrollments(c.Request.Context(), app.Repos(), user)
		if err != nil {
			HandleEngineError(c, app.Logger(), err, "Failed to list enrollments")
			return
		}
		HandleSuccess(c, app.Logger(), gin.H{"active": active, "archived": archived}, nil)
	}
}

func PostArchive(app App, archived bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		up, err := service.SetArchived(c.Request.Context(), app.Repos(), user, c.Param("id"), archived)
		if err != nil {
			HandleEngineError(c, app.Logger(), err, "Failed to update archive state")
			return
		}
		HandleSuccess(c, app.Logger(), up, nil)
	}
}
