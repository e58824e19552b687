/*
holidays.go - Moving-holiday computation and German holiday generation

PURPOSE:
  Public holidays are stored explicitly per year (the data model has no
  recurrence dimension), but admins import them from somewhere. This file
  computes the nationwide German set for a year, including the Easter-derived
  moving holidays, so a year can be imported with one call.

EASTER:
  Gauss's Easter algorithm (anonymous Gregorian form). Good Friday, Easter
  Monday, Ascension and Whit Monday are all fixed offsets from Easter Sunday.

SCOPE:
  Only the nine nationwide holidays. State-specific ones (Epiphany, Corpus
  Christi, Reformation Day, ...) are left to manual import.
*/
package calendar

import (
	"sort"
	"time"
)

// NamedDay is a holiday candidate produced by the generator. It mirrors the
// stored PublicHoliday shape without depending on the absence package.
type NamedDay struct {
	Date Date
	Name string
}

// Easter returns Easter Sunday for a year (Gregorian calendar).
func Easter(year int) Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return New(year, time.Month(month), day)
}

// GermanHolidays returns the nationwide German public holidays for a year,
// in calendar order.
func GermanHolidays(year int) []NamedDay {
	easter := Easter(year)
	days := []NamedDay{
		{New(year, time.January, 1), "Neujahr"},
		{easter.AddDays(-2), "Karfreitag"},
		{easter.AddDays(1), "Ostermontag"},
		{New(year, time.May, 1), "Tag der Arbeit"},
		{easter.AddDays(39), "Christi Himmelfahrt"},
		{easter.AddDays(50), "Pfingstmontag"},
		{New(year, time.October, 3), "Tag der Deutschen Einheit"},
		{New(year, time.December, 25), "1. Weihnachtstag"},
		{New(year, time.December, 26), "2. Weihnachtstag"},
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}
