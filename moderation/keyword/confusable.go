package keyword

// Table of code points which render close enough to each latin letter that
// they get used to slip words past literal matching. Each set includes the
// letter itself; upper-case forms are covered by case-insensitive matching,
// not by this table.
//
// This is intentionally not the full Unicode TR39 confusables list: entries
// are limited to substitutions actually seen in chat traffic (cyrillic,
// greek, digits, common diacritics, a few symbols).
var confusables = map[rune][]rune{
	'a': {'a', 'à', 'á', 'â', 'ä', 'å', 'ã', 'α', 'а', '@', '4', 'ɑ'},
	'b': {'b', 'б', 'ь', 'β', 'ʙ', '6'},
	'c': {'c', 'ç', 'с', 'ϲ', 'ċ', '¢'},
	'd': {'d', 'ԁ', 'ð', 'đ'},
	'e': {'e', 'è', 'é', 'ê', 'ë', 'е', 'ε', 'э', '3', '€'},
	'f': {'f', 'ƒ', 'ғ'},
	'g': {'g', 'ɡ', 'ğ', 'ǵ', '9'},
	'h': {'h', 'հ', 'һ', 'ħ'},
	'i': {'i', 'ì', 'í', 'î', 'ï', 'і', 'ι', '1', '!', 'ɩ'},
	'j': {'j', 'ј', 'ʝ'},
	'k': {'k', 'κ', 'к'},
	'l': {'l', 'ӏ', 'ʟ', 'ɫ', '1', '|'},
	'm': {'m', 'м', 'ʍ', 'ɱ'},
	'n': {'n', 'ո', 'п', 'ñ', 'ŋ'},
	'o': {'o', 'ò', 'ó', 'ô', 'ö', 'õ', 'ο', 'о', 'ө', '0'},
	'p': {'p', 'р', 'ρ', 'þ'},
	'q': {'q', 'ԛ'},
	'r': {'r', 'г', 'ʀ', 'ɾ'},
	's': {'s', 'ѕ', 'ş', '$', '5'},
	't': {'t', 'т', 'τ', 'ţ', '7', '+'},
	'u': {'u', 'ù', 'ú', 'û', 'ü', 'υ', 'ս'},
	'v': {'v', 'ν', 'ѵ'},
	'w': {'w', 'ω', 'ԝ', 'ѡ'},
	'x': {'x', 'х', 'χ', '×'},
	'y': {'y', 'у', 'ү', 'ý', 'ʏ'},
	'z': {'z', 'ʐ', 'ż', '2'},
}

// Confusables returns the visual variants of a latin letter, the letter
// itself always first. Returns nil for anything outside a-z/A-Z.
func Confusables(c rune) []rune {
	if c >= 'A' && c <= 'Z' {
		c = c + ('a' - 'A')
	}
	v, ok := confusables[c]
	if !ok {
		return nil
	}
	return v
}

// IsLatinLetter reports whether c is a bare a-z/A-Z letter subject to
// confusable expansion.
func IsLatinLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
