package core

// DefaultCurrencies is used when a restored backup carries no currency list.
func DefaultCurrencies() []Currency {
	return []Currency{
		{ID: 1, Code: "TWD", Name: "New Taiwan Dollar", Symbol: "NT$"},
		{ID: 2, Code: "USD", Name: "US Dollar", Symbol: "$"},
		{ID: 3, Code: "EUR", Name: "Euro", Symbol: "€"},
		{ID: 4, Code: "JPY", Name: "Japanese Yen", Symbol: "¥"},
		{ID: 5, Code: "CNY", Name: "Chinese Yuan", Symbol: "¥"},
	}
}

// AdjustmentCategory and AdjustmentTag label balance corrections.
const (
	AdjustmentCategory = "Balance correction"
	AdjustmentTag      = "correction"
	CardPaymentNote    = "Credit card payment"
)
