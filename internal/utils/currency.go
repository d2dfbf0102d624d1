package utils

// zeroDecimalCurrencies have no minor unit; amounts are whole numbers.
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {},
	"KRW": {}, "MGA": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {},
	"VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

// threeDecimalCurrencies carry three minor-unit digits.
var threeDecimalCurrencies = map[string]struct{}{
	"BHD": {}, "JOD": {}, "KWD": {}, "OMR": {}, "TND": {},
}

// PrecisionForCurrency returns the minor-unit digit count for an ISO 4217
// currency code, defaulting to 2.
func PrecisionForCurrency(code string) int {
	if _, ok := zeroDecimalCurrencies[code]; ok {
		return 0
	}
	if _, ok := threeDecimalCurrencies[code]; ok {
		return 3
	}
	return 2
}
