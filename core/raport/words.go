package raport

var units = [...]string{
	"", "Satu", "Dua", "Tiga", "Empat", "Lima", "Enam", "Tujuh", "Delapan", "Sembilan", "Sepuluh", "Sebelas",
}

// Words spells a score out in Indonesian, e.g. 85 => "Delapan Puluh Lima".
// Tens with no unit keep a trailing space ("Dua Puluh "); 0 and values outside 0..100 give "".
func Words(n int) string {
	switch {
	case n < 0 || n > 100:
		return ""
	case n < 12:
		return units[n]
	case n < 20:
		return units[n-10] + " Belas"
	case n < 100:
		return units[n/10] + " Puluh " + units[n%10]
	default:
		return "Seratus"
	}
}

// Predicate grades a score against its KKM: "B" when passing, "C" when below, "-" when not graded.
// Passing is checked first, so a KKM of 0 makes every score, 0 included, a "B".
func Predicate(score, kkm int) string {
	switch {
	case score >= kkm:
		return "B"
	case score > 0:
		return "C"
	default:
		return "-"
	}
}
