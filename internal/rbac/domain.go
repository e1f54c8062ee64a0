package rbac

// Module is a permission-bearing area of the console.
type Module string

// Action is an operation a role may be granted on a module.
type Action string

// Modules known to the console.
const (
	UserManagement         Module = "UserManagement"
	ProjectManagement      Module = "ProjectManagement"
	Roles                  Module = "Roles"
	Customer               Module = "Customer"
	NotificationManagement Module = "NotificationManagement"
	InvoicingAndPayment    Module = "InvoicingAndPayment"
	InstallationScheduling Module = "InstallationScheduling"
	DocumentManagement     Module = "DocumentManagement"
	ReportsAnalytics       Module = "ReportsAnalytics"
	ReviewsComments        Module = "ReviewsComments"
	CustomerDashboard      Module = "CustomerDashboard"
)

// Actions known to the console.
const (
	ActionCreate     Action = "create"
	ActionEdit       Action = "edit"
	ActionView       Action = "view"
	ActionDelete     Action = "delete"
	ActionFullAccess Action = "fullAccess"
)

// AllModules lists modules in display order.
var AllModules = []Module{
	UserManagement,
	ProjectManagement,
	Roles,
	Customer,
	NotificationManagement,
	InvoicingAndPayment,
	InstallationScheduling,
	DocumentManagement,
	ReportsAnalytics,
	ReviewsComments,
	CustomerDashboard,
}

// AllActions lists actions in display order.
var AllActions = []Action{ActionCreate, ActionEdit, ActionView, ActionDelete, ActionFullAccess}

var moduleLabels = map[Module]string{
	UserManagement:         "User Management",
	ProjectManagement:      "Project Management",
	Roles:                  "Roles",
	Customer:               "Customer",
	NotificationManagement: "Notification Management",
	InvoicingAndPayment:    "Invoicing and Payment",
	InstallationScheduling: "Installation & Delivery Scheduling",
	DocumentManagement:     "Document Management",
	ReportsAnalytics:       "Reports & Analytics",
	ReviewsComments:        "Reviews/Feedback & Comments",
	CustomerDashboard:      "Customer Dashboard",
}

var actionLabels = map[Action]string{
	ActionCreate:     "Create",
	ActionEdit:       "Edit",
	ActionView:       "View",
	ActionDelete:     "Delete",
	ActionFullAccess: "Full Access",
}

// Label returns the human readable module name.
func (m Module) Label() string {
	if label, ok := moduleLabels[m]; ok {
		return label
	}
	return string(m)
}

// Label returns the human readable action name.
func (a Action) Label() string {
	if label, ok := actionLabels[a]; ok {
		return label
	}
	return string(a)
}

// Valid reports whether m is one of AllModules.
func (m Module) Valid() bool {
	_, ok := moduleLabels[m]
	return ok
}

// Valid reports whether a is one of AllActions.
func (a Action) Valid() bool {
	_, ok := actionLabels[a]
	return ok
}

// Matrix maps module to action to granted flag. Missing cells are denied.
type Matrix map[Module]map[Action]bool

// NewMatrix returns a matrix with every known cell present and denied.
func NewMatrix() Matrix {
	m := make(Matrix, len(AllModules))
	for _, module := range AllModules {
		row := make(map[Action]bool, len(AllActions))
		for _, action := range AllActions {
			row[action] = false
		}
		m[module] = row
	}
	return m
}

// Clone returns a deep copy with every known cell present.
func (m Matrix) Clone() Matrix {
	out := NewMatrix()
	for module, row := range m {
		if !module.Valid() {
			continue
		}
		for action, granted := range row {
			if action.Valid() {
				out[module][action] = granted
			}
		}
	}
	return out
}

// Granted returns the number of granted cells, used by the roles list.
func (m Matrix) Granted() int {
	n := 0
	for _, row := range m {
		for _, granted := range row {
			if granted {
				n++
			}
		}
	}
	return n
}
