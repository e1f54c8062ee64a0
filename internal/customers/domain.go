package customers

import "time"

// Customer is an end client of the business.
type Customer struct {
	ID       int64
	FullName string
	Email    string
	Phone    string
}

// Document is a file shared with or by a customer.
type Document struct {
	ID        int64
	Type      string
	FilePath  string
	CreatedAt time.Time
}

// TeamLine lists the staff assigned to a project under one role.
type TeamLine struct {
	Role    string
	Members []string
}

// Project summarizes a project ordered by the customer.
type Project struct {
	ID                  int64
	Name                string
	Type                string
	Description         string
	Status              string
	TotalValue          float64
	DeliveryAddress     string
	StartDate           time.Time
	EstimatedCompletion time.Time
	Team                []TeamLine
}

// Detail is the customer page.
type Detail struct {
	Customer  Customer
	Documents []Document
	Projects  []Project
}
