// Package i18n holds the locale data shared by the booking confirmation and
// reminder messages. Supported languages are en, es and pt.
package i18n

import (
	"fmt"
	"strings"
	"time"
)

const Default = "en"

type dateNames struct {
	weekdays [7]string // indexed by time.Weekday
	months   [12]string
	format   func(weekday, month string, day, year int) string
}

var dates = map[string]dateNames{
	"en": {
		weekdays: [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		months: [12]string{"January", "February", "March", "April", "May", "June", "July",
			"August", "September", "October", "November", "December"},
		format: func(weekday, month string, day, year int) string {
			return fmt.Sprintf("%s, %s %d, %d", weekday, month, day, year)
		},
	},
	"es": {
		weekdays: [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
		months: [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
			"agosto", "septiembre", "octubre", "noviembre", "diciembre"},
		format: func(weekday, month string, day, year int) string {
			return fmt.Sprintf("%s, %d de %s de %d", weekday, day, month, year)
		},
	},
	"pt": {
		weekdays: [7]string{"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"},
		months: [12]string{"janeiro", "fevereiro", "março", "abril", "maio", "junho", "julho",
			"agosto", "setembro", "outubro", "novembro", "dezembro"},
		format: func(weekday, month string, day, year int) string {
			return fmt.Sprintf("%s, %d de %s de %d", weekday, day, month, year)
		},
	},
}

// Language reduces a locale such as "pt-BR", "es_MX" or "EN" to a supported
// language code, falling back to Default.
func Language(locale string) string {
	key := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(key, "-_"); i >= 0 {
		key = key[:i]
	}
	if _, ok := dates[key]; ok {
		return key
	}
	return Default
}

// FormatDate renders a civil date in the long form of locale.
func FormatDate(date time.Time, locale string) string {
	n := dates[Language(locale)]
	return n.format(n.weekdays[date.Weekday()], n.months[date.Month()-1], date.Day(), date.Year())
}
