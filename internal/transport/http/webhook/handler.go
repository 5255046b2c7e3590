package webhook

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"sigbridge/internal/gateway/venue"
	"sigbridge/internal/risk"
	"sigbridge/internal/signal"
	"sigbridge/internal/trader"
)

// signal payloads are short alert texts; anything bigger is garbage
const maxBodyBytes = 64 << 10

func handleWebhook(handler SignalHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "unreadable request body"})
			return
		}

		res, err := handler.HandleSignal(c.Request.Context(), string(body))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"status": "error", "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "order_id": res.OrderID})
	}
}

// statusFor maps pipeline failures onto HTTP codes: anything wrong with
// the signal itself is the caller's fault, venue-side failures are not.
// A bridge timeout gets 504 so alert senders can tell "resend later" from
// "fix the alert".
func statusFor(err error) int {
	var perr *signal.ParseError
	switch {
	case errors.As(err, &perr),
		errors.Is(err, risk.ErrInvalidRisk),
		errors.Is(err, trader.ErrVolumeOutOfRange),
		errors.Is(err, trader.ErrLimitCrossed),
		errors.Is(err, venue.ErrSymbolNotFound):
		return http.StatusBadRequest
	case venue.IsTimeout(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
