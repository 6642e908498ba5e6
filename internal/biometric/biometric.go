// Package biometric holds the shared types of the fingerprint enrollment and
// identification subsystem: opaque templates, capture samples, match
// verdicts, and the status variants surfaced to the presentation layer.
//
// The matching algorithm itself lives in an external service; everything in
// this tree treats templates as uninterpreted byte strings.
package biometric

import (
	"encoding/base64"
	"errors"
	"time"
)

// Taxonomy errors for the enrollment/identification workflows. Handlers
// translate these into domain error codes; none are ever swallowed.
var (
	// ErrDeviceUnavailable: no reader responded within the connect timeout.
	// User-recoverable by retrying Connect.
	ErrDeviceUnavailable = errors.New("capture device unavailable")

	// ErrCaptureCancelled: the user aborted an in-flight capture. A normal
	// transition, not a fault.
	ErrCaptureCancelled = errors.New("capture cancelled")

	// ErrExtractionFailed: the matching service rejected the sample quality.
	// The user must recapture.
	ErrExtractionFailed = errors.New("feature extraction failed")

	// ErrServiceUnavailable: transport failure or timeout talking to the
	// matching service. Never converted into a no-match verdict.
	ErrServiceUnavailable = errors.New("matching service unavailable")

	// ErrBusy: a workflow is already running against the current sample.
	ErrBusy = errors.New("workflow already in progress")

	// ErrNoSample: the workflow was started without a captured sample.
	ErrNoSample = errors.New("no sample available")
)

// Template is the opaque, base64-encoded feature representation produced by
// the external matcher. It carries no meaning here beyond present/absent.
type Template string

// SampleFormat is the encoding of a captured image, passed explicitly rather
// than held as device-global state.
type SampleFormat string

const (
	SampleFormatPNG SampleFormat = "png"
	SampleFormatRaw SampleFormat = "raw"
)

// Sample is a transient in-memory image produced by one capture operation.
// It is never persisted; it lives until the session is cleared or a new
// capture starts.
type Sample struct {
	Image      []byte
	Format     SampleFormat
	Quality    int
	CapturedAt time.Time
}

// Base64 returns the image encoded for the matcher wire format.
func (s Sample) Base64() string {
	return base64.StdEncoding.EncodeToString(s.Image)
}

// Candidate pairs a member with their stored template for a 1:N
// identification request.
type Candidate struct {
	MemberID int64
	Template Template
}

// Verdict is the outcome of an identification call. Score is only meaningful
// when Matched is true, and its acceptance threshold belongs to the external
// service; it is passed through for display only.
type Verdict struct {
	Matched  bool
	MemberID int64
	Score    float64
}

// StatusKind is the closed set of terminal workflow outcomes.
type StatusKind string

const (
	StatusRegistered    StatusKind = "registered"
	StatusUpdated       StatusKind = "updated"
	StatusRemoved       StatusKind = "removed"
	StatusError         StatusKind = "error"
	StatusIdentified    StatusKind = "identified"
	StatusNotIdentified StatusKind = "not_identified"
)

// Status is the single output contract toward the presentation layer. Every
// terminal workflow state yields exactly one Status.
type Status struct {
	Kind     StatusKind `json:"status"`
	Message  string     `json:"message"`
	MemberID int64      `json:"member_id,omitempty"`
	Score    float64    `json:"score,omitempty"`
}

func Registered(memberID int64) Status {
	return Status{Kind: StatusRegistered, MemberID: memberID, Message: "fingerprint template registered"}
}

func Updated(memberID int64) Status {
	return Status{Kind: StatusUpdated, MemberID: memberID, Message: "fingerprint template replaced"}
}

func Removed(memberID int64) Status {
	return Status{Kind: StatusRemoved, MemberID: memberID, Message: "fingerprint template removed"}
}

func Identified(memberID int64, score float64) Status {
	return Status{Kind: StatusIdentified, MemberID: memberID, Score: score, Message: "member identified"}
}

func NotIdentified() Status {
	return Status{Kind: StatusNotIdentified, Message: "no matching member found"}
}

func ErrorStatus(msg string) Status {
	return Status{Kind: StatusError, Message: msg}
}
