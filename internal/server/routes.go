package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danmuck/cohortctl/internal/rank"
)

func (s *Server) RegisterRoutes() {
	r := s.router
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"uptime":   time.Since(s.Appeared).String(),
			"service":  s.ID,
			"students": s.cohort.Len(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/students", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"count":    s.cohort.Len(),
			"students": s.cohort.Students,
		})
	})

	r.GET("/students/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
			return
		}
		st, ok := s.cohort.Lookup(int32(id))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		c.JSON(http.StatusOK, st)
	})

	r.GET("/rankings/top", func(c *gin.Context) {
		limit, ok := queryLimit(c, s.topLimit)
		if !ok {
			return
		}
		rows, err := rank.Standings(s.cohort, "", limit)
		if err != nil {
			writeRankError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"limit": limit, "standings": nonNil(rows)})
	})

	r.GET("/rankings/courses/:course", func(c *gin.Context) {
		course := c.Param("course")
		limit, ok := queryLimit(c, s.courseLimit)
		if !ok {
			return
		}
		rows, err := rank.Standings(s.cohort, course, limit)
		if err != nil {
			writeRankError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"course": course, "limit": limit, "standings": nonNil(rows)})
	})
}

func writeRankError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, rank.ErrCourseNotFound) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// queryLimit reads ?limit=, writing a 400 when it is not a non-negative
// integer.
func queryLimit(c *gin.Context, def int) (int, bool) {
	raw, present := c.GetQuery("limit")
	if !present {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return 0, false
	}
	return limit, true
}

func nonNil(rows []rank.Standing) []rank.Standing {
	if rows == nil {
		return []rank.Standing{}
	}
	return rows
}
