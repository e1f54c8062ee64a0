package invoices

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	project := Project{TotalValue: 1000, AdvancePayment: 200}
	list := []Invoice{
		{TotalAmount: 300, Status: StatusPaid},
		{TotalAmount: 250, AdvancePaid: 100, Status: StatusPartlyPaid},
		{TotalAmount: 100, AdvancePaid: 40, Status: StatusPending},
	}
	s := Summarize(project, list)
	assert.InDelta(t, 1000, s.TotalCost, 0.001)
	assert.InDelta(t, 640, s.Paid, 0.001)
	assert.InDelta(t, 360, s.Balance, 0.001)
	assert.False(t, s.Overpaid())
}

func TestSummarizeOverpaid(t *testing.T) {
	project := Project{TotalValue: 500, AdvancePayment: 300}
	s := Summarize(project, []Invoice{{TotalAmount: 400, Status: StatusPaid}})
	assert.InDelta(t, 500, s.TotalCost, 0.001)
	assert.InDelta(t, 700, s.Paid, 0.001)
	assert.True(t, s.Overpaid())
	assert.InDelta(t, 200, s.BalanceAmount(), 0.001)
}

func TestSummarizeUsesInvoicedTotalWhenLarger(t *testing.T) {
	s := Summarize(Project{TotalValue: 100}, []Invoice{{TotalAmount: 150, Status: StatusPending}})
	assert.InDelta(t, 150, s.TotalCost, 0.001)
	assert.InDelta(t, 150, s.Balance, 0.001)
}

func TestExceedsLimit(t *testing.T) {
	project := Project{TotalValue: 1000, AdvancePayment: 200}
	assert.True(t, ExceedsLimit(project, []Invoice{{TotalAmount: 900}}, 50))
	assert.False(t, ExceedsLimit(project, []Invoice{{TotalAmount: 700}}, 100))
	assert.True(t, ExceedsLimit(project, []Invoice{{TotalAmount: 700}}, 100.01))
}
