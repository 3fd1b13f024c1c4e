package response

import (
	"tourly/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps a service error onto the standard envelope using the
// apperror taxonomy. Guard failures surface their stated reason verbatim;
// internal errors hide behind the fallback message.
func RespondError(c *gin.Context, fallback string, err error) {
	code := apperror.HTTPStatus(err)
	if apperror.KindOf(err) == apperror.KindInternal {
		RespondJSON(c, "error", code, fallback, nil, err.Error())
		return
	}
	RespondJSON(c, "error", code, err.Error(), nil, nil)
}
