package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/projectdesk/projectdesk/internal/shared"
)

const (
	principalKey = "principal"
	tokenKey     = "principal_token"
)

// Session keys of the project creation wizard draft. They belong to the
// principal and are dropped on logout.
const (
	DraftStepKey       = "addProjectStep"
	DraftFormKey       = "addProjectFormData"
	DraftLeadMatrixKey = "addProjectLeadMatrix"
)

// ErrNoPrincipal is returned when the session holds no principal.
var ErrNoPrincipal = errors.New("identity: no principal in session")

// Store persists the principal in the server side session. The bearer token
// is sealed before it is written.
type Store struct {
	sealer *shared.Sealer
}

// NewStore builds a Store.
func NewStore(sealer *shared.Sealer) *Store {
	return &Store{sealer: sealer}
}

// Save writes the principal into sess.
func (s *Store) Save(sess *shared.Session, p Principal) error {
	if sess == nil {
		return errors.New("identity: session missing")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("identity: encode principal: %w", err)
	}
	sealed, err := s.sealer.Seal(p.Token)
	if err != nil {
		return fmt.Errorf("identity: seal token: %w", err)
	}
	sess.Set(principalKey, string(data))
	sess.Set(tokenKey, sealed)
	sess.SetUser(strconv.FormatInt(p.ID, 10))
	return nil
}

// Load hydrates the principal from sess.
func (s *Store) Load(sess *shared.Session) (Principal, error) {
	if sess == nil {
		return Principal{}, ErrNoPrincipal
	}
	raw := sess.Get(principalKey)
	if raw == "" {
		return Principal{}, ErrNoPrincipal
	}
	var p Principal
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Principal{}, fmt.Errorf("identity: decode principal: %w", err)
	}
	token, err := s.sealer.Open(sess.Get(tokenKey))
	if err != nil {
		return Principal{}, err
	}
	p.Token = token
	return p, nil
}

// Clear removes the principal and its draft data from sess.
func (s *Store) Clear(sess *shared.Session) {
	if sess == nil {
		return
	}
	sess.Delete(principalKey, tokenKey, DraftStepKey, DraftFormKey, DraftLeadMatrixKey)
	sess.SetUser("")
}
