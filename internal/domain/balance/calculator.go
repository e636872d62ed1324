// Package balance computes the monthly summary for a mess document: total
// meals and expenses for a reference month, the derived rate per meal, and
// each member's balance. Compute is a pure function of its inputs; it never
// touches storage and never mutates the document.
package balance

import (
	"time"

	"github.com/shopspring/decimal"

	"mess-manager-go/internal/domain/mess"
)

// Month identifies the reporting period. Location controls how expense
// timestamps are bucketed into months; nil means time.Local. Meal keys carry
// their own calendar date and are location-independent.
type Month struct {
	Year     int
	Month    time.Month
	Location *time.Location
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month(), Location: t.Location()}
}

func (m Month) location() *time.Location {
	if m.Location != nil {
		return m.Location
	}
	return time.Local
}

func (m Month) contains(epochMillis int64) bool {
	t := time.UnixMilli(epochMillis).In(m.location())
	return t.Year() == m.Year && t.Month() == m.Month
}

type MemberSummary struct {
	Name       string  `json:"name"`
	TotalMeals int     `json:"totalMeals"`
	Deposit    float64 `json:"deposit"`
	Balance    float64 `json:"balance"`
}

type Summary struct {
	TotalMeals      int                      `json:"totalMeals"`
	TotalExpenses   float64                  `json:"totalExpenses"`
	TotalDeposited  float64                  `json:"totalDeposited"`
	AvailableAmount float64                  `json:"availableAmount"`
	RatePerMeal     string                   `json:"ratePerMeal"`
	MemberSummaries map[string]MemberSummary `json:"memberSummaries"`
	MonthlyExpenses []mess.ExpenseDoc        `json:"monthlyExpenses"`
}

// Compute derives the summary for one reference month.
//
// Expenses are month-filtered; deposits are lifetime cumulative.
// AvailableAmount (cumulative deposits minus this month's expenses) mixes
// those two scopes; clients have always displayed that number, so it stays.
func Compute(doc mess.Document, month Month) Summary {
	totalMeals := 0
	totalExpenses := decimal.Zero
	totalDeposited := decimal.Zero

	monthlyExpenses := make([]mess.ExpenseDoc, 0)
	for _, expense := range doc.Expenses {
		if month.contains(expense.Date) {
			monthlyExpenses = append(monthlyExpenses, expense)
			totalExpenses = totalExpenses.Add(decimal.NewFromFloat(expense.Amount))
		}
	}

	memberSummaries := make(map[string]MemberSummary, len(doc.Members))
	memberMeals := make(map[string]int, len(doc.Members))
	for memberID, member := range doc.Members {
		meals := 0
		for key, count := range member.Meals {
			year, m, _, _, err := mess.ParseMealKey(key)
			if err != nil {
				continue
			}
			if year == month.Year && time.Month(m) == month.Month {
				meals += count
			}
		}

		totalMeals += meals
		totalDeposited = totalDeposited.Add(decimal.NewFromFloat(member.Deposit))
		memberMeals[memberID] = meals
		memberSummaries[memberID] = MemberSummary{
			Name:       member.Name,
			TotalMeals: meals,
			Deposit:    member.Deposit,
		}
	}

	rate := decimal.Zero
	if totalMeals > 0 {
		rate = totalExpenses.Div(decimal.NewFromInt(int64(totalMeals)))
	}

	for memberID, summary := range memberSummaries {
		share := rate.Mul(decimal.NewFromInt(int64(memberMeals[memberID])))
		summary.Balance = share.Sub(decimal.NewFromFloat(summary.Deposit)).InexactFloat64()
		memberSummaries[memberID] = summary
	}

	return Summary{
		TotalMeals:      totalMeals,
		TotalExpenses:   totalExpenses.InexactFloat64(),
		TotalDeposited:  totalDeposited.InexactFloat64(),
		AvailableAmount: totalDeposited.Sub(totalExpenses).InexactFloat64(),
		RatePerMeal:     rate.StringFixed(2),
		MemberSummaries: memberSummaries,
		MonthlyExpenses: monthlyExpenses,
	}
}
