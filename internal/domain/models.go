package domain

import "time"

// FirstIndex is the index rotation wraps back to.
const FirstIndex = 1

// DefaultMaxAttempts caps submissions per client per cycle.
const DefaultMaxAttempts = 10

// Problem is one numbered problem bundle.
type Problem struct {
	Index       int    `json:"index"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Hint        string `json:"hint"`
	Answer      string `json:"-"` // trimmed canonical answer
}

// Attempt tracks one client's progress on the active problem.
type Attempt struct {
	ClientID string `json:"clientId"`
	Nickname string `json:"nickname,omitempty"`
	Attempts int    `json:"attempts"`
	Success  bool   `json:"success"`
}

// Verdict is the outcome of a single submission.
type Verdict string

const (
	VerdictCorrect       Verdict = "correct"
	VerdictIncorrect     Verdict = "incorrect"
	VerdictAlreadySolved Verdict = "already_solved"
	VerdictMaxAttempts   Verdict = "max_attempts"
)

// Accepted reports whether the submission was evaluated (and an attempt consumed).
func (v Verdict) Accepted() bool {
	return v == VerdictCorrect || v == VerdictIncorrect
}

// SubmissionResult summarizes a submission for the caller.
type SubmissionResult struct {
	Verdict   Verdict `json:"verdict"`
	Attempts  int     `json:"attempts"`
	Remaining int     `json:"remaining"`
}

// Rotation is published every time the active problem advances.
type Rotation struct {
	From int       `json:"from"`
	To   int       `json:"to"`
	At   time.Time `json:"at"`
}
