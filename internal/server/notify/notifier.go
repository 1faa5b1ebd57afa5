// Package notify delivers one-time codes to users.
package notify

import (
	"context"
	"fmt"
	"time"
)

// Notifier sends login and password-reset codes. Delivery is synchronous;
// an error means the user did not get the code.
type Notifier interface {
	SendLoginOTP(ctx context.Context, email, code string) error
	SendPasswordResetOTP(ctx context.Context, email, code string) error
}

type message struct {
	subject string
	body    string
}

func loginOTPMessage(code string, ttl time.Duration) message {
	return message{
		subject: "Your Login OTP",
		body:    fmt.Sprintf("Your OTP for login is: %s\n\nIt is valid for %d minutes.", code, int(ttl.Minutes())),
	}
}

func passwordResetOTPMessage(code string, ttl time.Duration) message {
	return message{
		subject: "Password Reset OTP",
		body: fmt.Sprintf("Your OTP to reset your password is: %s\n\nIt is valid for %d minutes. "+
			"If you did not request a reset, ignore this email.", code, int(ttl.Minutes())),
	}
}
