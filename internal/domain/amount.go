package domain

import (
	"strconv"
	"strings"
)

var amountReplacer = strings.NewReplacer("$", "", ",", "")

// ParseAmount reads a currency string such as "$12,345.67" into a number.
func ParseAmount(s string) (float64, error) {
	return strconv.ParseFloat(amountReplacer.Replace(strings.TrimSpace(s)), 64)
}
