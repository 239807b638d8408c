package core

import "github.com/shopspring/decimal"

// Summary aggregates a record collection for the dashboard header.
type Summary struct {
	Count    int
	Income   decimal.Decimal
	Expenses decimal.Decimal // negative or zero
	Total    decimal.Decimal
}

// Total is the arithmetic sum of all amounts; zero for an empty collection.
func Total(records []Record) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(r.Amount)
	}
	return sum
}

func Summarize(records []Record) Summary {
	s := Summary{Count: len(records), Income: decimal.Zero, Expenses: decimal.Zero}
	for _, r := range records {
		if r.Kind() == Expense {
			s.Expenses = s.Expenses.Add(r.Amount)
		} else {
			s.Income = s.Income.Add(r.Amount)
		}
	}
	s.Total = s.Income.Add(s.Expenses)
	return s
}
