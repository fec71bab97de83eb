package service

import "time"

// MaxRetries bounds how many processing attempts a job may consume before
// it fails permanently.
const MaxRetries = 3

// RetryDecision is the outcome of the backoff policy for one failed attempt.
// Retry=false means the job is exhausted.
type RetryDecision struct {
	Retry bool
	Delay time.Duration
}

// DecideRetry maps a failed attempt number to a backoff decision. Delays
// grow as 2^attempt seconds (2s, 4s, 8s for attempts 1..3); any attempt
// past MaxRetries is exhausted.
func DecideRetry(attempt int) RetryDecision {
	if attempt > MaxRetries {
		return RetryDecision{}
	}
	return RetryDecision{
		Retry: true,
		Delay: time.Duration(1<<uint(attempt)) * time.Second,
	}
}
