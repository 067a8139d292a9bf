package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/siteforge/harvest/classifier"
	"github.com/siteforge/harvest/models"
)

// Classify returns a handler for POST /api/v1/classify.
//
// Filters a batch of search-result candidates down to real business sites
// and re-ranks the survivors sequentially.
func Classify() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ClassifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		filtered := classifier.FilterCandidates(req.Candidates)
		c.JSON(http.StatusOK, models.ClassifyResponse{
			Candidates: filtered,
			Rejected:   len(req.Candidates) - len(filtered),
		})
	}
}
