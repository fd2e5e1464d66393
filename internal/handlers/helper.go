package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// ParseUintParam reads a positive numeric path parameter. On failure it has
// already written a 400 response.
func ParseUintParam(c *gin.Context, param string) (uint, bool) {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return 0, false
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}

// parseQuestionIDs decodes a JSON list of question ids. Entries may be
// numbers or numeric strings; anything else is skipped.
func parseQuestionIDs(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var values []interface{}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(values))
	for _, v := range values {
		if id, ok := toQuestionID(v); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parseLatencies decodes a JSON object of question id to seconds.
func parseLatencies(raw string) (map[int]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var values map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	out := make(map[int]float64, len(values))
	for key, v := range values {
		id, err := strconv.Atoi(strings.TrimPrefix(key, "q"))
		if err != nil {
			continue
		}
		switch seconds := v.(type) {
		case float64:
			out[id] = seconds
		case string:
			if f, err := strconv.ParseFloat(seconds, 64); err == nil {
				out[id] = f
			}
		}
	}
	return out, nil
}

func toQuestionID(v interface{}) (int, bool) {
	switch id := v.(type) {
	case float64:
		return int(id), id == float64(int(id))
	case string:
		n, err := strconv.Atoi(strings.TrimPrefix(id, "q"))
		return n, err == nil
	default:
		return 0, false
	}
}

// parseUnixSeconds reads a unix timestamp in seconds; fractional values are
// accepted.
func parseUnixSeconds(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds <= 0 {
		return time.Time{}, false
	}
	whole := int64(seconds)
	return time.Unix(whole, int64((seconds-float64(whole))*float64(time.Second))), true
}

// parseDateQuery reads an optional YYYY-MM-DD query value.
func parseDateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
