package projects

import (
	"encoding/json"
	"strconv"

	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/shared"
)

// Wizard steps of project creation.
const (
	StepDetails = 1
	StepTeam    = 2
	StepFiles   = 3
)

// Draft is the in-progress project of the creation wizard. It lives in the
// session until the project is submitted or the principal logs out.
type Draft struct {
	Step  int
	Form  ProjectInput
	Items []ItemInput
}

// LoadDraft restores the wizard draft from sess, or a blank draft on the
// first step when none is stored or it cannot be decoded.
func LoadDraft(sess *shared.Session) Draft {
	draft := Draft{Step: StepDetails, Form: NewProjectInput()}
	if sess == nil {
		return draft
	}
	if step, err := strconv.Atoi(sess.Get(identity.DraftStepKey)); err == nil && step >= StepDetails && step <= StepFiles {
		draft.Step = step
	}
	if raw := sess.Get(identity.DraftFormKey); raw != "" {
		var form ProjectInput
		if err := json.Unmarshal([]byte(raw), &form); err == nil {
			draft.Form = form
		}
	}
	if raw := sess.Get(identity.DraftLeadMatrixKey); raw != "" {
		var items []ItemInput
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			draft.Items = items
		}
	}
	return draft
}

// SaveDraft writes the draft into sess.
func SaveDraft(sess *shared.Session, draft Draft) error {
	if sess == nil {
		return nil
	}
	form, err := json.Marshal(draft.Form)
	if err != nil {
		return err
	}
	items, err := json.Marshal(draft.Items)
	if err != nil {
		return err
	}
	sess.Set(identity.DraftStepKey, strconv.Itoa(draft.Step))
	sess.Set(identity.DraftFormKey, string(form))
	sess.Set(identity.DraftLeadMatrixKey, string(items))
	return nil
}

// ClearDraft drops the wizard draft from sess.
func ClearDraft(sess *shared.Session) {
	if sess == nil {
		return
	}
	sess.Delete(identity.DraftStepKey, identity.DraftFormKey, identity.DraftLeadMatrixKey)
}
