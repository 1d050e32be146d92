// Package ciclo holds the calendar arithmetic behind recurring billing:
// due-date rollover, billing-cycle keys (competência) and the normalization
// of every date representation accepted at the data-access boundary.
//
// All dates produced here are calendar dates pinned to 12:00 UTC. Noon keeps
// the calendar day stable when the value is later rendered in any timezone
// between UTC-11 and UTC+11 (Brazil is UTC-3).
package ciclo

import (
	"time"
	_ "time/tzdata" // business timezone must resolve on minimal images
)

// HoraCanonica is the time-of-day every canonical date is pinned to.
const HoraCanonica = 12

// Data builds the canonical date for a calendar day.
func Data(ano int, mes time.Month, dia int) time.Time {
	return time.Date(ano, mes, dia, HoraCanonica, 0, 0, 0, time.UTC)
}

// DataDe returns the canonical date of t's calendar day as seen in loc.
// A nil loc reads the calendar day in UTC.
func DataDe(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	} else {
		t = t.UTC()
	}
	y, m, d := t.Date()
	return Data(y, m, d)
}

// UltimoDia returns the number of days in the given month.
func UltimoDia(ano int, mes time.Month) int {
	// day 0 of the following month is the last day of mes
	return time.Date(ano, mes+1, 0, HoraCanonica, 0, 0, 0, time.UTC).Day()
}

// ProximoVencimento advances atual to the following calendar month, landing on
// min(diaAncora, último dia do mês alvo). The clamp is not carried forward:
// callers keep passing the original anchor and every rollover re-clamps.
// Anchors outside 1..31 are brought into range.
func ProximoVencimento(atual time.Time, diaAncora int) time.Time {
	y, m, _ := atual.UTC().Date()

	// first of the target month; time.Date normalizes December → January
	alvo := time.Date(y, m+1, 1, HoraCanonica, 0, 0, 0, time.UTC)
	ultimo := UltimoDia(alvo.Year(), alvo.Month())

	dia := diaAncora
	switch {
	case dia < 1:
		dia = 1
	case dia > ultimo:
		dia = ultimo
	}
	return Data(alvo.Year(), alvo.Month(), dia)
}

// Referencia returns the (ano, mês) billing cycle key of a due date.
func Referencia(vencimento time.Time) (int, int) {
	y, m, _ := vencimento.UTC().Date()
	return y, int(m)
}

// Competencia formats the year-month of agora in the business timezone.
// It is a reporting / idempotency label only and plays no part in due-date math.
func Competencia(agora time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return agora.In(loc).Format("2006-01")
}
