// Package onboarding implements the step-gated wizard new students walk
// through before appearing in the directory.
package onboarding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unilink/backend/internal/models"
)

// Step indexes the linear wizard sequence.
type Step int

const (
	StepPassword Step = iota
	StepIdentity
	StepAcademics
	StepPhoto
	StepContacts

	numSteps
)

func (s Step) String() string {
	switch s {
	case StepPassword:
		return "password"
	case StepIdentity:
		return "identity"
	case StepAcademics:
		return "academics"
	case StepPhoto:
		return "photo"
	case StepContacts:
		return "contacts"
	}
	return "unknown"
}

var (
	ErrStepIncomplete = errors.New("current step is incomplete")
	ErrFirstStep      = errors.New("already at the first step")
	ErrLastStep       = errors.New("already at the last step")
	// ErrStepLocked fires on attempts to navigate back across the password
	// step once the password has been set.
	ErrStepLocked = errors.New("cannot go back past a completed password step")
)

// Wizard wraps a draft with navigation rules. It mutates the draft's Step;
// persisting the result is the caller's job.
type Wizard struct {
	Draft *models.OnboardingDraft
}

func New(draft *models.OnboardingDraft) *Wizard {
	if draft.Step < 0 {
		draft.Step = 0
	}
	if draft.Step >= int(numSteps) {
		draft.Step = int(numSteps) - 1
	}
	return &Wizard{Draft: draft}
}

func (w *Wizard) Current() Step { return Step(w.Draft.Step) }

// StepValid runs the validity predicate of one step. The reason is empty
// when the step is valid.
func (w *Wizard) StepValid(s Step) (bool, string) {
	d := w.Draft
	switch s {
	case StepPassword:
		if !d.PasswordSet {
			return false, "a password must be set"
		}
	case StepIdentity:
		if strings.TrimSpace(d.Identity.FirstName) == "" || strings.TrimSpace(d.Identity.LastName) == "" {
			return false, "first and last name are required"
		}
	case StepAcademics:
		if strings.TrimSpace(d.Academics.CurrentDegree) == "" {
			return false, "a current degree must be selected"
		}
	case StepPhoto:
		// The photo is optional; this step never blocks.
	case StepContacts:
		if strings.TrimSpace(d.Contacts.Email) == "" {
			return false, "a contact email is required"
		}
	}
	return true, ""
}

// Next advances one step. The active step's validity predicate gates the
// move.
func (w *Wizard) Next() error {
	if w.Current() >= numSteps-1 {
		return ErrLastStep
	}
	if ok, reason := w.StepValid(w.Current()); !ok {
		return fmt.Errorf("%w: %s", ErrStepIncomplete, reason)
	}
	w.Draft.Step++
	return nil
}

// Back retreats one step. Once the password step has completed it is
// irreversible, so navigation back onto it is blocked.
func (w *Wizard) Back() error {
	if w.Current() == 0 {
		return ErrFirstStep
	}
	if Step(w.Draft.Step-1) == StepPassword && w.Draft.PasswordSet {
		return ErrStepLocked
	}
	w.Draft.Step--
	return nil
}

// ReadyToComplete reports whether every step's predicate passes.
func (w *Wizard) ReadyToComplete() (bool, string) {
	for s := Step(0); s < numSteps; s++ {
		if ok, reason := w.StepValid(s); !ok {
			return false, fmt.Sprintf("%s: %s", s, reason)
		}
	}
	return true, ""
}

// Steps lists the step names in order, for clients rendering progress.
func Steps() []string {
	out := make([]string, 0, numSteps)
	for s := Step(0); s < numSteps; s++ {
		out = append(out, s.String())
	}
	return out
}
