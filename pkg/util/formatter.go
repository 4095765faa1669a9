package util

import "fmt"

// FormatScientific renders value in scientific notation with six
// significant digits, the CSV output convention: "1.23456e-03".
func FormatScientific(value float64) string {
	return fmt.Sprintf("%.5e", value)
}
