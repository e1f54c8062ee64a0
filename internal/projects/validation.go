package projects

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var stepFields = map[int][]string{
	StepDetails: {"Name", "Type", "ClientName", "Description", "StartDate", "EstimatedCompletion"},
	StepTeam:    {"TotalValue", "AdvancePayment", "DeliveryAddress", "DeliveryHours", "Status"},
}

// validateProject checks the fields shown on step. StepFiles checks every
// field since it submits the project.
func validateProject(v *validator.Validate, in ProjectInput, step int) map[string]string {
	all := map[string]string{}
	if err := v.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				all[fe.Field()] = projectMessage(fe)
			}
		}
	}
	if in.StartDate != "" && in.EstimatedCompletion != "" && in.EstimatedCompletion < in.StartDate {
		if _, ok := all["EstimatedCompletion"]; !ok {
			all["EstimatedCompletion"] = "Estimated completion cannot be before the start date"
		}
	}
	if in.AdvancePayment > in.TotalValue {
		if _, ok := all["AdvancePayment"]; !ok {
			all["AdvancePayment"] = "Advance payment cannot exceed the total value"
		}
	}
	fields, ok := stepFields[step]
	if !ok {
		return all
	}
	out := map[string]string{}
	for _, field := range fields {
		if msg, ok := all[field]; ok {
			out[field] = msg
		}
	}
	return out
}

// validateItems checks lead-time rows; errors are keyed "items.<index>".
func validateItems(v *validator.Validate, items []ItemInput) map[string]string {
	out := map[string]string{}
	for i, item := range items {
		if msg := validateItem(v, item); msg != "" {
			out["items."+strconv.Itoa(i)] = msg
		}
	}
	return out
}

func validateItem(v *validator.Validate, item ItemInput) string {
	err := v.Struct(item)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid item"
	}
	switch verrs[0].Field() {
	case "Name":
		return "Item name is required"
	case "Quantity":
		return "Quantity must be greater than zero"
	case "Status":
		return "Choose a valid item status"
	default:
		return "Enter a valid date"
	}
}

func projectMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Name":
		if fe.Tag() == "required" {
			return "Project name is required"
		}
		return "Project name is too long"
	case "ClientName":
		return "Select a customer"
	case "Type":
		return "Choose a valid project type"
	case "StartDate", "EstimatedCompletion":
		return "Enter a valid date"
	case "TotalValue", "AdvancePayment":
		return "Amount cannot be negative"
	case "Status":
		return "Choose a valid status"
	default:
		return "Value is too long"
	}
}
