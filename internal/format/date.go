package format

import (
	"strings"
	"time"
)

// DateStyle estilo de fecha
type DateStyle string

const (
	DateDash  DateStyle = "dash"
	DateDot   DateStyle = "dot"
	DateSlash DateStyle = "slash"
)

var dateLayouts = map[DateStyle]string{
	DateDash:  "02-01-2006 15:04",
	DateDot:   "02.01.2006 15:04",
	DateSlash: "02/01/2006 15:04",
}

// Date formatea fecha y hora según el estilo; estilos desconocidos usan dash
func Date(t time.Time, style DateStyle) string {
	layout, ok := dateLayouts[style]
	if !ok {
		layout = dateLayouts[DateDash]
	}
	return t.Format(layout)
}

// ReceiptNumber aplica la plantilla de número de recibo
func ReceiptNumber(template, number string) string {
	return strings.ReplaceAll(template, "{number}", number)
}
