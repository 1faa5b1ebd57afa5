package notify

import (
	"context"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/logging"
)

// LogNotifier writes codes to the log instead of sending them. It is used
// when no SMTP host is configured and must not be used in production.
type LogNotifier struct {
	logger logging.Logger
	ttl    time.Duration
}

func NewLogNotifier(logger logging.Logger, ttl time.Duration) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notify"), ttl: ttl}
}

func (n *LogNotifier) SendLoginOTP(ctx context.Context, email, code string) error {
	m := loginOTPMessage(code, n.ttl)
	n.logger.Info(ctx, "login otp", "to", email, "subject", m.subject, "code", code)
	return nil
}

func (n *LogNotifier) SendPasswordResetOTP(ctx context.Context, email, code string) error {
	m := passwordResetOTPMessage(code, n.ttl)
	n.logger.Info(ctx, "password reset otp", "to", email, "subject", m.subject, "code", code)
	return nil
}
