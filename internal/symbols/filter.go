// Package symbols classifies tickers that should never appear in a gap scan:
// index and leveraged ETFs, warrants, units, rights and preferred shares.
package symbols

import (
	"regexp"
	"strings"
)

// Index, sector and leveraged/inverse ETFs that gap with their underlying
// rather than on company news.
var knownETFs = map[string]bool{
	"SPY": true, "QQQ": true, "IWM": true, "DIA": true, "VOO": true, "VTI": true,
	"TQQQ": true, "SQQQ": true, "SPXL": true, "SPXS": true, "SPXU": true, "UPRO": true,
	"SSO": true, "SDS": true, "QLD": true, "QID": true, "TNA": true, "TZA": true,
	"SOXL": true, "SOXS": true, "LABU": true, "LABD": true, "FAS": true, "FAZ": true,
	"TECL": true, "TECS": true, "NUGT": true, "DUST": true, "JNUG": true, "JDST": true,
	"UVXY": true, "SVXY": true, "VXX": true, "VIXY": true, "UCO": true, "SCO": true,
	"BOIL": true, "KOLD": true, "TSLL": true, "NVDL": true, "NVDS": true, "TSLQ": true,
	"XLF": true, "XLE": true, "XLK": true, "XLV": true, "XLI": true, "XLU": true,
	"GLD": true, "SLV": true, "USO": true, "UNG": true, "TLT": true, "HYG": true,
	"ARKK": true, "SMH": true, "KRE": true, "XBI": true, "EEM": true, "EFA": true,
}

// Separator-delimited suffixes for warrants, units, rights and preferreds.
var derivativeSuffixes = []string{
	".WS", "-WS", ".WT", "-WT", "+", ".U", "-U", ".UN", "-UN",
	".R", "-R", ".RT", "-RT", "-P", ".P", ".PR", "-PR",
}

var (
	// Five-letter Nasdaq symbols whose fifth letter marks a warrant, right or unit.
	nasdaqDerivativePattern = regexp.MustCompile(`^[A-Z]{4}[WRU]$`)
	// Preferred series such as "BAC-PL", "WFC.PRY" or "JPM PRC".
	preferredPattern = regexp.MustCompile(`^[A-Z]{1,5}[ .\-]?P(R)?[A-Z]?$`)
	// Share classes such as "BF.B" or "LGF-A".
	dualClassPattern = regexp.MustCompile(`^[A-Z]{1,5}[.\-/][A-Z]$`)
)

// legitimateDualClass is the one dual-class listing that trades as ordinary
// common stock and stays in the universe.
const legitimateDualClass = "BRK.B"

var classSeparators = strings.NewReplacer("-", ".", "/", ".")

// IsExcludedDerivative reports whether symbol is an ETF, warrant, unit,
// right, preferred share or secondary share class.
func IsExcludedDerivative(symbol string) bool {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return false
	}
	if knownETFs[s] {
		return true
	}
	for _, suffix := range derivativeSuffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	if nasdaqDerivativePattern.MatchString(s) {
		return true
	}
	if hasSeparator(s) && preferredPattern.MatchString(s) {
		return true
	}
	if dualClassPattern.MatchString(s) {
		return classSeparators.Replace(s) != legitimateDualClass
	}
	return false
}

// Partition splits symbols into kept and excluded, preserving order.
func Partition(symbols []string) (kept, excluded []string) {
	kept = make([]string, 0, len(symbols))
	for _, s := range symbols {
		if IsExcludedDerivative(s) {
			excluded = append(excluded, s)
			continue
		}
		kept = append(kept, s)
	}
	return kept, excluded
}

func hasSeparator(s string) bool {
	return strings.ContainsAny(s, " .-")
}
