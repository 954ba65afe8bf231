package handlers

import (
	"net/http"
	"strconv"
	"time"

	"storefront-services/internal/queue"
	"storefront-services/pkg/response"
)

// CronQueueDrain processes up to ?max pending events for deployments that
// run the worker in cron mode instead of as a daemon.
func (h *Handler) CronQueueDrain(w http.ResponseWriter, r *http.Request) {
	startedAt := time.Now().UTC()
	max := 50
	if v := r.URL.Query().Get("max"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			max = clampInt(n, 1, 250)
		}
	}

	if h.Queue == nil || h.Dispatch == nil {
		response.JSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"disabled":  true,
			"processed": 0,
			"errors":    []string{},
			"startedAt": startedAt,
			"endedAt":   time.Now().UTC(),
		})
		return
	}

	processed := 0
	errors := make([]string, 0)

	for i := 0; i < max; i++ {
		msg, ok, err := h.Queue.Get(h.Config.RabbitMQQueue)
		if err != nil {
			errors = append(errors, err.Error())
			break
		}
		if !ok {
			break
		}

		processed++
		if err := h.Dispatch(r.Context(), queue.RoutingKeyOf(msg), msg.Body); err != nil {
			errors = append(errors, err.Error())
			_ = msg.Nack(false, true)
			continue
		}

		_ = msg.Ack(false)
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"success":   len(errors) == 0,
		"disabled":  false,
		"processed": processed,
		"errors":    errors,
		"startedAt": startedAt,
		"endedAt":   time.Now().UTC(),
	})
}

func (h *Handler) CronSoldCountRecompute(w http.ResponseWriter, r *http.Request) {
	h.runSoldCountBatch(w, r)
}
