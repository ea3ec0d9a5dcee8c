package telegram

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"visual-assist/api/internal/logger"
)

// GetUpdates cannot be cancelled, so pollTimeoutSec bounds how long Run
// lingers after ctx is done.
const (
	pollTimeoutSec = 5
	baseDelay      = 1 * time.Second
	maxDelay       = 15 * time.Second
)

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return baseDelay
}

func clampDelay(d time.Duration) time.Duration {
	if d < baseDelay {
		return baseDelay
	}
	if d > maxDelay {
		return maxDelay
	}
	return d
}

// Run long-polls for updates until ctx is cancelled. Updates are handled
// one at a time, in order.
func (r *Router) Run(ctx context.Context) error {
	offset := 0
	for {
		if ctx.Err() != nil {
			logger.Infof("telegram polling stopped")
			return nil
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = pollTimeoutSec

		updates, err := r.Bot.GetUpdates(u)
		if err != nil {
			d := clampDelay(retryDelayFromError(err))
			logger.Warnf("telegram polling error: %v; retry in %v", scrub(err), d)
			if !sleep(ctx, d) {
				return nil
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			r.HandleUpdate(ctx, upd)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
