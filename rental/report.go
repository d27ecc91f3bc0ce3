package rental

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// RateEntry is one bar of the rate sheet.
type RateEntry struct {
	CarName    string
	CostPerDay int64
}

// RateSheet projects the fleet to (name, cost per day) pairs in table order.
func RateSheet(cars []Car) []RateEntry {
	out := make([]RateEntry, len(cars))
	for i, c := range cars {
		out[i] = RateEntry{CarName: c.Name, CostPerDay: c.CostPerDay}
	}
	return out
}

// MemberBookings is one bar of the active-booking distribution.
type MemberBookings struct {
	MemberName string
	Count      int
}

// BookingDistribution counts active bookings per member name, largest first.
// Ties are ordered by name.
func BookingDistribution(bookings []ActiveBooking) []MemberBookings {
	counts := make(map[string]int)
	for _, b := range bookings {
		counts[b.MemberName]++
	}
	out := make([]MemberBookings, 0, len(counts))
	for name, n := range counts {
		out = append(out, MemberBookings{MemberName: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].MemberName < out[j].MemberName
	})
	return out
}

// Bar is one labelled value of a text chart.
type Bar struct {
	Label string
	Value int64
}

const chartWidth = 40

// RenderBarChart draws horizontal bars scaled to the largest value.
func RenderBarChart(w io.Writer, title, valueLabel string, bars []Bar) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
	if len(bars) == 0 {
		fmt.Fprintln(w, "(no data)")
		return
	}

	labelWidth := 0
	var peak int64
	for _, b := range bars {
		labelWidth = max(labelWidth, len(b.Label))
		peak = max(peak, b.Value)
	}
	for _, b := range bars {
		n := 0
		if peak > 0 && b.Value > 0 {
			n = max(1, int(b.Value*chartWidth/peak))
		}
		fmt.Fprintf(w, "%-*s | %s %d\n", labelWidth, b.Label, strings.Repeat("#", n), b.Value)
	}
	fmt.Fprintf(w, "%*s   %s\n", labelWidth, "", valueLabel)
}

// RateBars adapts a rate sheet for RenderBarChart.
func RateBars(entries []RateEntry) []Bar {
	out := make([]Bar, len(entries))
	for i, e := range entries {
		out[i] = Bar{Label: e.CarName, Value: e.CostPerDay}
	}
	return out
}

// DistributionBars adapts a booking distribution for RenderBarChart.
func DistributionBars(dist []MemberBookings) []Bar {
	out := make([]Bar, len(dist))
	for i, d := range dist {
		out[i] = Bar{Label: d.MemberName, Value: int64(d.Count)}
	}
	return out
}

// RenderBookingSummary prints the car / member / bill amount listing of
// the active bookings.
func RenderBookingSummary(w io.Writer, bookings []ActiveBooking) {
	banner := strings.Repeat("^", 50)
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "Car Name\tMember Name\tBill Amount")
	for _, b := range bookings {
		fmt.Fprintf(w, "%s\t%s\t%d\n", b.CarName, b.MemberName, b.TotalCost)
	}
	fmt.Fprintln(w, banner)
}
