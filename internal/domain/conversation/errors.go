package conversation

import "errors"

var (
	ErrSessionBusy     = errors.New("session is being updated by another message")
	ErrMixedWizardData = errors.New("session holds data of more than one wizard")
	ErrDraftMissing    = errors.New("session state has no matching draft")
	ErrEmptyInput      = errors.New("input has neither text nor postback")
)
