package handlers

import (
	"net/http"
	"strconv"
	"time"

	"clinic-backend/internal/cache"
	"clinic-backend/internal/database"
	"clinic-backend/internal/logger"
	"clinic-backend/internal/models"
	"clinic-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type RecordVisitRequest struct {
	Page   string  `json:"page" binding:"required"`
	Role   *string `json:"role"`
	UserID *string `json:"user_id"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// RecordVisit stores a page view beaconed by the client.
func RecordVisit(c *gin.Context) {
	var req RecordVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	now := time.Now()
	visit := models.UserVisit{
		Page:      req.Page,
		Role:      req.Role,
		UserID:    req.UserID,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		VisitDate: now.Format(utils.DateLayout),
		VisitedAt: now.Format(utils.TimestampLayout),
	}
	if err := database.DB.Create(&visit).Error; err != nil {
		respondServerError(c, "Failed to record visit", err)
		return
	}
	if err := cache.Visits.Incr(c.Request.Context(), visit.VisitDate); err != nil {
		logger.Log.WithError(err).Warn("failed to bump visit counter")
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Visit recorded", "id": visit.ID})
}

// VisitStats summarises visits over the last days (default 7, at most 90).
func VisitStats(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 || days > 90 {
		respondMessage(c, http.StatusBadRequest, "days must be between 1 and 90")
		return
	}

	now := time.Now()
	today := now.Format(utils.DateLayout)
	from := now.AddDate(0, 0, -(days - 1)).Format(utils.DateLayout)

	var total int64
	if err := database.DB.Model(&models.UserVisit{}).Count(&total).Error; err != nil {
		respondServerError(c, "Error counting visits", err)
		return
	}

	var rows []DailyCount
	err = database.DB.Model(&models.UserVisit{}).
		Select("visit_date AS date, COUNT(*) AS count").
		Where("visit_date >= ?", from).
		Group("visit_date").
		Scan(&rows).Error
	if err != nil {
		respondServerError(c, "Error aggregating visits", err)
		return
	}
	byDate := make(map[string]int64, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r.Count
	}

	// every day in the window appears, quiet days with zero
	daily := make([]DailyCount, 0, days)
	counts := make([]int64, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := now.AddDate(0, 0, -i).Format(utils.DateLayout)
		daily = append(daily, DailyCount{Date: d, Count: byDate[d]})
		counts = append(counts, byDate[d])
	}
	avg, stddev := utils.CountStats(counts)

	todayCount := byDate[today]
	if n, ok, err := cache.Visits.Get(c.Request.Context(), today); err != nil {
		logger.Log.WithError(err).Warn("failed to read visit counter")
	} else if ok {
		// a counter lagging the table, e.g. after a Redis restart, must not hide rows
		todayCount = max(todayCount, n)
	}

	var roleRows []struct {
		Role  *string
		Count int64
	}
	err = database.DB.Model(&models.UserVisit{}).
		Select("role, COUNT(*) AS count").
		Where("visit_date >= ?", from).
		Group("role").
		Scan(&roleRows).Error
	if err != nil {
		respondServerError(c, "Error aggregating visits by role", err)
		return
	}
	byRole := make(map[string]int64, len(roleRows))
	for _, r := range roleRows {
		key := "anonymous"
		if r.Role != nil && *r.Role != "" {
			key = *r.Role
		}
		byRole[key] += r.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"total":         total,
		"today":         todayCount,
		"days":          days,
		"daily":         daily,
		"by_role":       byRole,
		"daily_average": avg,
		"daily_stddev":  stddev,
	})
}
