package store

import "finsight/internal/finance/models"

// DemoSnapshot is the fixed dataset served in demo mode.
func DemoSnapshot() models.Snapshot {
	f := models.Float
	return models.Snapshot{
		Accounts: []models.Account{
			{AccountID: "demo-chk", Name: "Everyday Checking", Type: "depository", Subtype: "checking",
				CurrentBalance: f(4285.32), AvailableBalance: f(4135.32), CurrencyCode: "USD", InstitutionName: "First Platypus Bank"},
			{AccountID: "demo-sav", Name: "High Yield Savings", Type: "depository", Subtype: "savings",
				CurrentBalance: f(18250), CurrencyCode: "USD", InstitutionName: "First Platypus Bank"},
			{AccountID: "demo-cc", Name: "Rewards Card", Type: "credit", Subtype: "credit card",
				CurrentBalance: f(1342.18), AvailableBalance: f(8657.82), CurrencyCode: "USD", InstitutionName: "Tartan Credit Union"},
			{AccountID: "demo-brk", Name: "Brokerage", Type: "investment", Subtype: "brokerage",
				CurrentBalance: f(52410.77), CurrencyCode: "USD", InstitutionName: "Houndstooth Investments"},
		},
		Transactions: []models.Transaction{
			{TransactionID: "demo-t1", AccountID: "demo-chk", Name: "Payroll Deposit", Amount: f(3200), Date: "2025-01-15",
				EnrichedCategories: []string{"Income", "Wages"}, PaymentChannel: "other"},
			{TransactionID: "demo-t2", AccountID: "demo-cc", Name: "SQ *BLUE BOTTLE", MerchantName: "Blue Bottle Coffee", Amount: f(-6.25), Date: "2025-01-14",
				EnrichedCategories: []string{"Food and Drink", "Coffee"}, Location: &models.Location{City: "Oakland", Region: "CA"}, PaymentChannel: "in store"},
			{TransactionID: "demo-t3", AccountID: "demo-chk", Name: "City Power & Light", Amount: f(-118.40), Date: "2025-01-12",
				Category: []string{"Service", "Utilities"}, PaymentChannel: "online"},
			{TransactionID: "demo-t4", AccountID: "demo-cc", Name: "Grocery Outlet", Amount: f(-84.97), Date: "2025-01-11",
				EnrichedCategories: []string{"Food and Drink", "Groceries"}, Location: &models.Location{City: "Berkeley", Region: "CA"}, PaymentChannel: "in store"},
			{TransactionID: "demo-t5", AccountID: "demo-cc", Name: "Streamflix", Amount: f(-15.49), Date: "2025-01-10",
				Category: []string{"Service", "Subscription"}, PaymentChannel: "online", Pending: true},
			{TransactionID: "demo-t6", AccountID: "demo-chk", Name: "Rent Payment", Amount: f(-2150), Date: "2025-01-01",
				EnrichedCategories: []string{"Rent and Utilities", "Rent"}, PaymentChannel: "online"},
		},
		Holdings: []models.Holding{
			{AccountID: "demo-brk", SecurityName: "Total Market Index Fund", TickerSymbol: "TMIF", SecurityType: "etf",
				Quantity: f(120.5), InstitutionPrice: f(265.10), InstitutionValue: f(31944.55), CostBasis: f(27000)},
			{AccountID: "demo-brk", SecurityName: "Intl Developed Markets Fund", TickerSymbol: "IDMF", SecurityType: "mutual fund",
				Quantity: f(300), InstitutionPrice: f(48.74), InstitutionValue: f(14622), CostBasis: f(15100)},
			{AccountID: "demo-brk", SecurityName: "Treasury Bond Ladder", SecurityType: "fixed income",
				Quantity: f(5), InstitutionPrice: f(1168.84), InstitutionValue: f(5844.22), CostBasis: f(6000)},
		},
		Liabilities: []models.Liability{
			{Name: "Rewards Card", Type: "credit", InstitutionName: "Tartan Credit Union",
				CurrentBalance: f(1342.18), APR: f(22.99), MinimumPayment: f(40), NextPaymentDueDate: "2025-02-05"},
			{Name: "Graduate Loan", Type: "student", InstitutionName: "Meridian Loan Servicing",
				CurrentBalance: f(23800), APR: f(5.28), MinimumPayment: f(265), NextPaymentDueDate: "2025-02-01"},
		},
	}
}

// DemoProfile is the planning profile served in demo mode.
func DemoProfile() models.Profile {
	return models.Profile{
		Goals:           []string{"Build a six month emergency fund", "Pay off the student loan early"},
		RiskTolerance:   "moderate",
		TimeHorizon:     "10+ years",
		IncomeBracket:   "75k-100k",
		HouseholdStatus: "single",
	}
}
