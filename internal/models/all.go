package models

// All lists every model migrated into a tenant database.
func All() []any {
	return []any{
		&DocumentSequence{},
		&UserAuth{},
		&Company{},
		&Employee{},
		&Supplier{},
		&Contact{},
		&Address{},
		&Product{},
		&StockMovement{},
		&Quote{},
		&QuoteItem{},
		&SalesOrder{},
		&SalesOrderItem{},
		&Payment{},
		&ExpenseClaim{},
		&ExpenseItem{},
		&Content{},
		&ContentVersion{},
		&ContentCategory{},
		&ContentTag{},
		&ContentView{},
		&CalendarEvent{},
		&OnboardingPlan{},
		&OnboardingTask{},
		&PerformanceReview{},
		&ReviewGoal{},
		&Shift{},
		&Ticket{},
	}
}
