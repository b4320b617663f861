package ratelimiter

import "time"

// Default rules for the auth API.
var (
	LoginRule = Rule{
		Name:    "login",
		Limit:   5,
		Window:  15 * time.Minute,
		Message: "Too many login attempts, please try again after 15 minutes",
	}
	RegisterRule = Rule{
		Name:    "register",
		Limit:   3,
		Window:  time.Hour,
		Message: "Too many accounts created from this IP, please try again after an hour",
	}
	ForgotPasswordRule = Rule{
		Name:    "forgotpassword",
		Limit:   3,
		Window:  time.Hour,
		Message: "Too many reset attempts, please try again after an hour",
	}
	APIRule = Rule{
		Name:    "api",
		Limit:   100,
		Window:  15 * time.Minute,
		Message: "Too many requests from this IP, please try again after 15 minutes",
	}
)
