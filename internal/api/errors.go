package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/studio/internal/document"
	"github.com/zulandar/studio/internal/meta"
	"github.com/zulandar/studio/internal/page"
)

// errorBody is the error envelope returned by every endpoint.
type errorBody struct {
	ExcType   string `json:"exc_type"`
	Exception string `json:"exception"`
}

// validationError marks a bad request from the caller.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func invalid(msg string) error { return &validationError{msg: msg} }

// writeError maps err onto a status code and error envelope. Not-found is
// 404, a taken name is 409, caller mistakes are 417 (the framework's
// ValidationError status), everything else is 500.
func writeError(c *gin.Context, err error) {
	c.Error(err)

	var verr *validationError
	switch {
	case errors.Is(err, meta.ErrDocTypeNotFound), errors.Is(err, document.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody{ExcType: "DoesNotExistError", Exception: err.Error()})
	case errors.Is(err, document.ErrDuplicate):
		c.AbortWithStatusJSON(http.StatusConflict, errorBody{ExcType: "DuplicateEntryError", Exception: err.Error()})
	case errors.As(err, &verr), errors.Is(err, document.ErrMissingLinkage), errors.Is(err, page.ErrInvalid):
		c.AbortWithStatusJSON(http.StatusExpectationFailed, errorBody{ExcType: "ValidationError", Exception: err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{ExcType: "InternalServerError", Exception: "internal server error"})
	}
}
