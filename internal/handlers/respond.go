package handlers

import (
	"errors"
	"net/http"

	"clinic-backend/internal/database"
	"clinic-backend/internal/logger"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/scheduling"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var errUsernameTaken = errors.New("username is already taken")

// notFoundError names the missing resource in the 404 body.
type notFoundError struct{ what string }

func (e *notFoundError) Error() string { return e.what + " not found" }

func notFound(what string) error { return &notFoundError{what: what} }

// badRequestError is a validation failure detected inside a transaction.
type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(msg string) error { return &badRequestError{msg: msg} }

// forbiddenError is an ownership failure detected after loading a row.
type forbiddenError struct{ msg string }

func (e *forbiddenError) Error() string { return e.msg }

func forbidden(msg string) error { return &forbiddenError{msg: msg} }

func respondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "details": err.Error()})
}

func respondServerError(c *gin.Context, msg string, err error) {
	logger.Log.WithError(err).
		WithField("request_id", middleware.GetRequestID(c)).
		WithField("path", c.Request.URL.Path).
		Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"message": msg, "details": err.Error()})
}

// respondError maps domain and database errors onto status codes.
// Anything unrecognised is a 500 reported with msg.
func respondError(c *gin.Context, msg string, err error) {
	var nf *notFoundError
	var br *badRequestError
	var fb *forbiddenError
	switch {
	case errors.As(err, &nf):
		respondMessage(c, http.StatusNotFound, nf.Error())
	case errors.As(err, &br):
		respondMessage(c, http.StatusBadRequest, br.Error())
	case errors.As(err, &fb):
		respondMessage(c, http.StatusForbidden, fb.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondMessage(c, http.StatusNotFound, "Record not found")
	case errors.Is(err, scheduling.ErrDoctorBusy):
		respondMessage(c, http.StatusConflict, "Doctor already has an appointment at this date and time")
	case errors.Is(err, scheduling.ErrPatientBusy):
		respondMessage(c, http.StatusConflict, "Patient already has an appointment at this date and time")
	case errors.Is(err, errUsernameTaken):
		respondMessage(c, http.StatusConflict, "Username already exists")
	case database.IsUniqueViolation(err):
		respondMessage(c, http.StatusConflict, "Record conflicts with an existing one")
	default:
		respondServerError(c, msg, err)
	}
}
