package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"classfeed/internal/service"
)

func (h *handler) handleSweep(c *gin.Context) {
	summary, err := h.sweeper.Sweep(c.Request.Context(), h.now())
	h.respondJob(c, summary, err)
}

func (h *handler) handleReconcile(c *gin.Context) {
	summary, err := h.reconciler.Reconcile(c.Request.Context(), h.now())
	h.respondJob(c, summary, err)
}

func (h *handler) handleReminders(c *gin.Context) {
	summary, err := h.reminders.Dispatch(c.Request.Context(), h.now())
	h.respondJob(c, summary, err)
}

// respondJob maps run-level failures to 503 so the trigger retries on its
// own schedule. Per-unit failures are already folded into the summary.
func (h *handler) respondJob(c *gin.Context, summary interface{}, err error) {
	if err != nil {
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("job run failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "summary": summary})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handler) handleGateCheck(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	category, ok := service.ParseCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}

	allowed, err := h.gate.IsAllowed(c.Request.Context(), uint(userID), category, h.now())
	if err != nil {
		h.logger.Error().Err(err).Uint64("user_id", userID).Msg("gate check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "settings unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}
