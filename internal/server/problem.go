package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blockmart/blockmart/internal/marketplace"
)

// ProblemDetails is the RFC 7807 error document returned by the API.
type ProblemDetails struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Status    int       `json:"status"`
	Detail    string    `json:"detail"`
	Instance  string    `json:"instance,omitempty"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const problemTypeBase = "https://api.blockmart.io/errors/"

func kindStatus(k marketplace.Kind) (int, string) {
	switch k {
	case marketplace.KindValidation:
		return http.StatusBadRequest, "Validation Error"
	case marketplace.KindAuthorization:
		return http.StatusForbidden, "Authorization Error"
	case marketplace.KindState:
		return http.StatusConflict, "State Error"
	case marketplace.KindPayment:
		return http.StatusPaymentRequired, "Payment Error"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// problemFor translates a marketplace error into a problem document. Errors
// outside the marketplace taxonomy become opaque internal errors.
func problemFor(err error, instance string) *ProblemDetails {
	var me *marketplace.Error
	if errors.As(err, &me) {
		status, title := kindStatus(me.Kind)
		return &ProblemDetails{
			Type:      problemTypeBase + me.Code,
			Title:     title,
			Status:    status,
			Detail:    me.Message,
			Instance:  instance,
			Code:      me.Code,
			Timestamp: time.Now().UTC(),
		}
	}
	return &ProblemDetails{
		Type:      problemTypeBase + "internal-error",
		Title:     "Internal Server Error",
		Status:    http.StatusInternalServerError,
		Detail:    "operation failed",
		Instance:  instance,
		Timestamp: time.Now().UTC(),
	}
}

func writeProblem(c *gin.Context, err error) {
	pd := problemFor(err, c.Request.URL.Path)
	c.Header("Content-Type", "application/problem+json")
	c.JSON(pd.Status, pd)
}

func writeBadRequest(c *gin.Context, detail string) {
	c.Header("Content-Type", "application/problem+json")
	c.JSON(http.StatusBadRequest, &ProblemDetails{
		Type:      problemTypeBase + "bad-request",
		Title:     "Validation Error",
		Status:    http.StatusBadRequest,
		Detail:    detail,
		Instance:  c.Request.URL.Path,
		Timestamp: time.Now().UTC(),
	})
}

func writeNotFound(c *gin.Context, detail string) {
	c.Header("Content-Type", "application/problem+json")
	c.JSON(http.StatusNotFound, &ProblemDetails{
		Type:      problemTypeBase + "not-found",
		Title:     "Not Found",
		Status:    http.StatusNotFound,
		Detail:    detail,
		Instance:  c.Request.URL.Path,
		Timestamp: time.Now().UTC(),
	})
}
