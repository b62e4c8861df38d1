package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"vendor-inventory-import/conf"
	"vendor-inventory-import/controller/respond"
	"vendor-inventory-import/database"
	"vendor-inventory-import/service/import_service"
	"vendor-inventory-import/service/shipping_service"
)

// writeError maps service errors onto the response envelope
func writeError(c *gin.Context, funcName string, err error) {
	var (
		fileErr     *import_service.FileError
		rowErr      *import_service.RowError
		cooldownErr *shipping_service.CooldownError
		carrierErr  *shipping_service.CarrierError
	)

	switch {
	case errors.Is(err, import_service.ErrUnsupportedContentType):
		respond.UnsupportedMediaType(c, err.Error())
	case errors.As(err, &fileErr):
		respond.InvalidParamWithData(c, err.Error(), respond.FileErrorResponse{Line: fileErr.Line})
	case errors.As(err, &rowErr):
		respond.InvalidParamWithData(c, err.Error(), respond.RowErrorResponse{
			RowNumber: rowErr.RowNumber,
			Field:     rowErr.Field,
			Value:     rowErr.Value,
		})
	case errors.Is(err, import_service.ErrEmptyFile),
		errors.Is(err, import_service.ErrFileTooLarge),
		errors.Is(err, import_service.ErrInvalidFilter),
		errors.Is(err, import_service.ErrUnknownCorrection),
		errors.Is(err, import_service.ErrNoTargets),
		errors.Is(err, import_service.ErrNotReconcilable),
		errors.Is(err, shipping_service.ErrInvalidParcel):
		respond.InvalidParam(c, err.Error())
	case errors.Is(err, database.ErrNotFound),
		errors.Is(err, import_service.ErrRunNotFound):
		respond.NotFound(c, err.Error())
	case errors.Is(err, import_service.ErrRunActive),
		errors.Is(err, import_service.ErrRunNotActive),
		errors.Is(err, import_service.ErrRunCompleted),
		errors.Is(err, import_service.ErrMassCorrectionBusy):
		respond.Conflict(c, err.Error())
	case errors.As(err, &cooldownErr):
		retry := cooldownErr.RetryAfterSeconds()
		respond.TooManyRequests(c, err.Error(), retry, respond.CooldownResponse{RetryAfterSeconds: retry})
	case errors.As(err, &carrierErr), errors.Is(err, shipping_service.ErrRateMissing):
		respond.BadGateway(c, err.Error())
	case errors.Is(err, shipping_service.ErrQuoteNotConfigured):
		respond.ServiceUnavailable(c, err.Error())
	default:
		conf.LogError("handler", funcName, c.Request.URL.Path, nil, err)
		respond.ServerError(c, err.Error())
	}
}
