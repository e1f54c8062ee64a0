package rbac

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// legacy keys written by older dashboards, after folding.
var moduleAliases = map[string]Module{
	"installationdeliveryscheduling": InstallationScheduling,
	"installationscheduling":         InstallationScheduling,
	"reviewsfeedbackcomments":        ReviewsComments,
	"reviewsfeedback":                ReviewsComments,
	"rolespermissions":               Roles,
	"rolemanagement":                 Roles,
	"customers":                      Customer,
	"customermanagement":             Customer,
	"invoicingpayment":               InvoicingAndPayment,
}

var actionAliases = map[string]Action{
	"full":  ActionFullAccess,
	"all":   ActionFullAccess,
	"read":  ActionView,
	"write": ActionEdit,
}

// Normalize converts a stored permissions payload into a Matrix covering
// every known module and action. The payload may be an object or a JSON
// string holding an object, keyed by typed names ("UserManagement",
// "fullAccess") or display names ("User Management", "Full Access").
// Unknown keys are dropped and absent cells are denied.
func Normalize(raw json.RawMessage) (Matrix, error) {
	out := NewMatrix()
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("rbac: decode permissions: %w", err)
		}
		inner = strings.TrimSpace(inner)
		if inner == "" || inner == "null" {
			return out, nil
		}
		raw = json.RawMessage(inner)
	}

	var stored map[string]map[string]any
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("rbac: decode permissions: %w", err)
	}
	for key, row := range stored {
		module, ok := ParseModule(key)
		if !ok {
			continue
		}
		for name, value := range row {
			action, ok := ParseAction(name)
			if !ok {
				continue
			}
			if truthy(value) {
				out[module][action] = true
			}
		}
	}
	return out, nil
}

// ParseModule resolves a typed or display module name.
func ParseModule(name string) (Module, bool) {
	key := fold(name)
	for _, module := range AllModules {
		if fold(string(module)) == key || fold(module.Label()) == key {
			return module, true
		}
	}
	module, ok := moduleAliases[key]
	return module, ok
}

// ParseAction resolves a typed or display action name.
func ParseAction(name string) (Action, bool) {
	key := fold(name)
	for _, action := range AllActions {
		if fold(string(action)) == key {
			return action, true
		}
	}
	action, ok := actionAliases[key]
	return action, ok
}

func fold(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	case float64:
		return t != 0
	default:
		return false
	}
}
