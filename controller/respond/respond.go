package respond

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const startTimeKey = "requestStartTime"

// Business codes carried in the envelope
const (
	CodeSuccess          = 0
	CodeInvalidParam     = 40000
	CodeNotFound         = 40400
	CodeConflict         = 40900
	CodeUnsupportedMedia = 41500
	CodeRateLimited      = 42900
	CodeServerError      = 50000
	CodeUpstreamError    = 50200
	CodeUnavailable      = 50300
)

// Response unified response envelope
type Response struct {
	Code           int         `json:"code" example:"0"`
	Message        string      `json:"message" example:"success"`
	Data           interface{} `json:"data"`
	ProcessingTime int64       `json:"processingTime" example:"12"` // milliseconds
}

// TimingMiddleware records the request start so the envelope can report processing time
func TimingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(startTimeKey, time.Now())
		c.Next()
	}
}

func processingTime(c *gin.Context) int64 {
	if v, ok := c.Get(startTimeKey); ok {
		if start, ok := v.(time.Time); ok {
			return time.Since(start).Milliseconds()
		}
	}
	return 0
}

func write(c *gin.Context, status, code int, message string, data interface{}) {
	c.JSON(status, Response{
		Code:           code,
		Message:        message,
		Data:           data,
		ProcessingTime: processingTime(c),
	})
}

// Success 200 with data
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, CodeSuccess, "success", data)
}

// SuccessWithCode 200 with a custom business code
func SuccessWithCode(c *gin.Context, code int, data interface{}) {
	write(c, http.StatusOK, code, "success", data)
}

// Created 201 with data
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, CodeSuccess, "created", data)
}

// InvalidParam 400
func InvalidParam(c *gin.Context, message string) {
	write(c, http.StatusBadRequest, CodeInvalidParam, message, nil)
}

// InvalidParamWithData 400 carrying details, e.g. the offending row
func InvalidParamWithData(c *gin.Context, message string, data interface{}) {
	write(c, http.StatusBadRequest, CodeInvalidParam, message, data)
}

// UnsupportedMediaType 415
func UnsupportedMediaType(c *gin.Context, message string) {
	write(c, http.StatusUnsupportedMediaType, CodeUnsupportedMedia, message, nil)
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	write(c, http.StatusNotFound, CodeNotFound, message, nil)
}

// Conflict 409
func Conflict(c *gin.Context, message string) {
	write(c, http.StatusConflict, CodeConflict, message, nil)
}

// TooManyRequests 429 with a Retry-After header
func TooManyRequests(c *gin.Context, message string, retryAfterSeconds int, data interface{}) {
	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	write(c, http.StatusTooManyRequests, CodeRateLimited, message, data)
}

// BadGateway 502
func BadGateway(c *gin.Context, message string) {
	write(c, http.StatusBadGateway, CodeUpstreamError, message, nil)
}

// ServiceUnavailable 503
func ServiceUnavailable(c *gin.Context, message string) {
	write(c, http.StatusServiceUnavailable, CodeUnavailable, message, nil)
}

// ServerError 500
func ServerError(c *gin.Context, message string) {
	write(c, http.StatusInternalServerError, CodeServerError, message, nil)
}
