package rbac

// CanPerform reports whether the matrix grants action on module. Only the
// stored cell counts: fullAccess does not imply other actions and unknown
// pairs are denied.
func CanPerform(m Matrix, module Module, action Action) bool {
	row, ok := m[module]
	if !ok {
		return false
	}
	return row[action]
}

// Toggle flips one cell of a role being edited and applies the cascade:
// turning edit on also turns view on, and fullAccess sets every action of
// the module to its new value. The input matrix is not modified.
func Toggle(m Matrix, module Module, action Action) Matrix {
	out := m.Clone()
	if !module.Valid() || !action.Valid() {
		return out
	}
	row := out[module]
	next := !row[action]
	switch action {
	case ActionFullAccess:
		for _, a := range AllActions {
			row[a] = next
		}
	case ActionEdit:
		row[ActionEdit] = next
		if next {
			row[ActionView] = true
		}
	default:
		row[action] = next
	}
	return out
}
