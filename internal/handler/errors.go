package handler

import (
	"errors"
	"net/http"

	"github.com/stemsi/exstem-cbt/internal/quiz"
	"github.com/stemsi/exstem-cbt/internal/response"
	"github.com/stemsi/exstem-cbt/internal/service"
)

// classify maps a session error to its HTTP status and error code.
func classify(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, quiz.ErrUnknownQuestion):
		return http.StatusBadRequest, response.ErrUnknownQuestion
	case errors.Is(err, quiz.ErrChoiceOutOfRange):
		return http.StatusBadRequest, response.ErrChoiceRange
	case errors.Is(err, quiz.ErrAnswerType):
		return http.StatusBadRequest, response.ErrAnswerType
	case errors.Is(err, service.ErrNotSubmitted):
		return http.StatusConflict, response.ErrNotSubmitted
	case errors.Is(err, service.ErrNotInitialized):
		return http.StatusServiceUnavailable, response.ErrNotInitialized
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}
