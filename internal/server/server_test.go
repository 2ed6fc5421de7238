package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/cohortctl/internal/rank"
	"github.com/danmuck/cohortctl/internal/record"
	"github.com/danmuck/cohortctl/internal/testutil/testlog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sampleCohort() *record.Cohort {
	c := record.NewCohort(4)
	add := func(id int32, first string, course string, grades ...float32) {
		s, ok := c.Lookup(id)
		if !ok {
			s = record.NewStudent(id, first, "L", 20)
			c.Add(s)
		}
		co := s.Enroll(course, 1)
		for _, g := range grades {
			s.AddGrade(co, g)
		}
	}
	add(1, "Ana", "Geographie", 12)
	add(2, "Leo", "Geographie", 17)
	add(3, "Ines", "Maths", 19)
	add(4, "Zoe", "Geographie", 8)
	add(5, "Max", "Geographie", 14)
	return c
}

func get(t *testing.T, s *Server, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	var body map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	}
	testlog.Logf("server/http: GET %s status=%d", target, rr.Code)
	return rr, body
}

func standingIDs(t *testing.T, body map[string]any) []float64 {
	t.Helper()
	rows, ok := body["standings"].([]any)
	require.True(t, ok, "standings missing: %#v", body)
	ids := make([]float64, 0, len(rows))
	for _, row := range rows {
		student := row.(map[string]any)["student"].(map[string]any)
		ids = append(ids, student["id"].(float64))
	}
	return ids
}

func TestHealth(t *testing.T) {
	testlog.Start(t)
	s := New("cohort-api", sampleCohort(), Options{})
	rr, body := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(5), body["students"])
}

func TestStudents(t *testing.T) {
	s := New("cohort-api", sampleCohort(), Options{})

	rr, body := get(t, s, "/students")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(5), body["count"])

	rr, body = get(t, s, "/students/3")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Ines", body["first_name"])

	rr, _ = get(t, s, "/students/99")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = get(t, s, "/students/abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRankingsTop(t *testing.T) {
	s := New("cohort-api", sampleCohort(), Options{TopLimit: 2})

	rr, body := get(t, s, "/rankings/top")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []float64{3, 2}, standingIDs(t, body))

	rr, body = get(t, s, "/rankings/top?limit=10")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []float64{3, 2, 5, 1, 4}, standingIDs(t, body))

	rr, body = get(t, s, "/rankings/top?limit=0")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, standingIDs(t, body))

	rr, _ = get(t, s, "/rankings/top?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr, _ = get(t, s, "/rankings/top?limit=ten")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRankingsCourse(t *testing.T) {
	s := New("cohort-api", sampleCohort(), Options{})

	rr, body := get(t, s, "/rankings/courses/Geographie")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Geographie", body["course"])
	assert.Equal(t, []float64{2, 5, 1}, standingIDs(t, body))

	rr, _ = get(t, s, "/rankings/courses/Latin")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = get(t, s, "/rankings/courses/Geographie?limit=x")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEmptyCohort(t *testing.T) {
	s := New("cohort-api", nil, Options{})

	rr, body := get(t, s, "/rankings/top")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, standingIDs(t, body))

	rr, body = get(t, s, "/rankings/courses/Geographie")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, standingIDs(t, body))
}

func TestLiteralCohortServedConcurrently(t *testing.T) {
	c := &record.Cohort{Students: []*record.Student{
		record.NewStudent(1, "Ana", "L", 20),
		record.NewStudent(2, "Leo", "L", 21),
	}}
	s := New("cohort-api", c, Options{})

	var wg sync.WaitGroup
	codes := make(chan int, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			rr := httptest.NewRecorder()
			s.HTTPRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/students/%d", id), nil))
			codes <- rr.Code
		}(i%2 + 1)
	}
	wg.Wait()
	close(codes)
	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
}

func TestRankErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: Latin", rank.ErrCourseNotFound), http.StatusNotFound},
		{errors.New("ranking broke"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rr)
		writeRankError(c, tc.err)
		assert.Equal(t, tc.want, rr.Code, tc.err.Error())
		assert.Contains(t, rr.Body.String(), tc.err.Error())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := New("cohort-api", sampleCohort(), Options{})
	get(t, s, "/health")

	rr, _ := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "cohortctl_http_requests_total")
}

func TestServeStopsOnCancel(t *testing.T) {
	s := New("cohort-api", sampleCohort(), Options{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
