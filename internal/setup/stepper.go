package setup

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Step names the six stations of the installation flow, in order
type Step string

const (
	StepScan         Step = "scan"
	StepSummary      Step = "summary"
	StepPhotos       Step = "photos"
	StepSpeedTest    Step = "speedtest"
	StepSignature    Step = "signature"
	StepConfirmation Step = "confirmation"
)

var stepOrder = []Step{
	StepScan,
	StepSummary,
	StepPhotos,
	StepSpeedTest,
	StepSignature,
	StepConfirmation,
}

// PhotoCapture is one photo held in the transient form
type PhotoCapture struct {
	Data       []byte
	CapturedAt time.Time
}

// SpeedReading is one speed test measurement held in the transient form
type SpeedReading struct {
	DownloadMbps float64
	UploadMbps   float64
	PingMs       float64
	Raw          []byte
	MeasuredAt   time.Time
}

// FormData accumulates evidence during a setup. Nothing in it is
// persisted until the completion transition flushes it in one
// transaction; abandoning the form mid-flow needs no compensation.
type FormData struct {
	Photos     []PhotoCapture
	Speed      *SpeedReading
	Signature  []byte
	SignerName string
}

// Validate checks the completion preconditions: at least one photo, a
// speed test with positive download, and a signed signature. The setup
// service runs this server-side as well, so a client skipping the
// stepper cannot complete without evidence.
func (f *FormData) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: empty form", ErrMissingEvidence)
	}
	if len(f.Photos) == 0 {
		return fmt.Errorf("%w: at least one photo", ErrMissingEvidence)
	}
	for _, p := range f.Photos {
		if len(p.Data) == 0 {
			return fmt.Errorf("%w: empty photo payload", ErrMissingEvidence)
		}
	}
	if f.Speed == nil || f.Speed.DownloadMbps <= 0 {
		return fmt.Errorf("%w: speed test with download > 0", ErrMissingEvidence)
	}
	if f.Speed.UploadMbps < 0 || f.Speed.PingMs < 0 {
		return fmt.Errorf("%w: negative speed test values", ErrMissingEvidence)
	}
	if len(f.Signature) == 0 || strings.TrimSpace(f.SignerName) == "" {
		return fmt.Errorf("%w: signature and signer name", ErrMissingEvidence)
	}
	return nil
}

// Stepper is a finite pointer into the ordered step list. Next advances
// only when the current step's completion predicate holds; Previous
// always moves back one step and never clears collected evidence.
type Stepper struct {
	idx       int
	confirmed bool

	Form *FormData
}

// NewStepper creates a stepper positioned at the scan step with an
// empty evidence form
func NewStepper() *Stepper {
	return &Stepper{Form: &FormData{}}
}

// Current returns the step the pointer is on
func (s *Stepper) Current() Step {
	return stepOrder[s.idx]
}

// Confirmed reports whether the completion transition has succeeded
func (s *Stepper) Confirmed() bool {
	return s.confirmed
}

// CanAdvance reports whether the current step's completion predicate holds
func (s *Stepper) CanAdvance() bool {
	return s.stepComplete() == nil
}

// stepComplete is the per-step completion predicate
func (s *Stepper) stepComplete() error {
	switch s.Current() {
	case StepScan, StepSummary:
		// scan resolved before entering the stepper; summary is read-only
		return nil
	case StepPhotos:
		if len(s.Form.Photos) == 0 {
			return fmt.Errorf("%w: no photos captured", ErrStepIncomplete)
		}
	case StepSpeedTest:
		if s.Form.Speed == nil || s.Form.Speed.DownloadMbps <= 0 {
			return fmt.Errorf("%w: no speed test recorded", ErrStepIncomplete)
		}
	case StepSignature:
		if len(s.Form.Signature) == 0 || strings.TrimSpace(s.Form.SignerName) == "" {
			return fmt.Errorf("%w: signature pending", ErrStepIncomplete)
		}
	case StepConfirmation:
		if !s.confirmed {
			return ErrNotConfirmed
		}
	}
	return nil
}

// Next advances the pointer by one step. From confirmation it only
// succeeds once Confirm has run; the user stays on the step otherwise.
func (s *Stepper) Next() error {
	if err := s.stepComplete(); err != nil {
		return err
	}
	if s.idx < len(stepOrder)-1 {
		s.idx++
	}
	return nil
}

// Previous moves back one step without validation. Evidence collected
// for later steps is retained.
func (s *Stepper) Previous() {
	if s.idx > 0 {
		s.idx--
	}
}

// AddPhoto records a photo into the transient form
func (s *Stepper) AddPhoto(data []byte, capturedAt time.Time) {
	s.Form.Photos = append(s.Form.Photos, PhotoCapture{Data: data, CapturedAt: capturedAt})
}

// RecordSpeed replaces the current speed reading with the most recent one
func (s *Stepper) RecordSpeed(r SpeedReading) {
	s.Form.Speed = &r
}

// Sign records the signature image and signer name
func (s *Stepper) Sign(image []byte, signerName string) {
	s.Form.Signature = image
	s.Form.SignerName = signerName
}

// Confirm drives the completion transition from the confirmation step.
// All durable effects of the stepper happen here and only here.
func (s *Stepper) Confirm(ctx context.Context, svc *Service, setupID string) error {
	if s.Current() != StepConfirmation {
		return fmt.Errorf("%w: not on confirmation step", ErrStepIncomplete)
	}
	if s.confirmed {
		return ErrInvalidTransition
	}
	if err := svc.Complete(ctx, setupID, s.Form); err != nil {
		return err
	}
	s.confirmed = true
	return nil
}
