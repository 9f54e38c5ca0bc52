package inventory

import "fmt"

// CalculateGSTAmount returns the tax portion for price at gstPercentage.
// Negative inputs are not rejected; validating them is the caller's job.
func CalculateGSTAmount(price, gstPercentage float64) float64 {
	return price * (gstPercentage / 100)
}

// PriceIncGST returns price with GST added. The result is not rounded.
func PriceIncGST(price, gstPercentage float64) float64 {
	return price + CalculateGSTAmount(price, gstPercentage)
}

// FormatCurrency renders an amount for display only.
func FormatCurrency(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
