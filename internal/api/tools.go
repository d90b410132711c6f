package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/glucocheck/internal/vitals"
)

type bmiRequest struct {
	HeightCm float64 `json:"height_cm" form:"height_cm"`
	WeightKg float64 `json:"weight_kg" form:"weight_kg"`
}

func (s *Server) bmi(c *gin.Context) {
	var req bmiRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	res, err := vitals.CalculateBMI(req.HeightCm, req.WeightKg)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_measure", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) quickCheck(c *gin.Context) {
	v, err := strconv.ParseFloat(strings.TrimSpace(c.Query("value")), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_value", "message": "value must be a number"})
		return
	}
	res, err := vitals.QuickCheck(c.Param("field"), v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_value", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}
