package booking

import "time"

// Category is a read-side grouping of a user's bookings relative to now.
type Category string

const (
	CategoryPast     Category = "past"
	CategoryCurrent  Category = "current"
	CategoryUpcoming Category = "upcoming"
)

// Categorized holds a user's bookings partitioned by Category.
type Categorized struct {
	Past     []*Booking
	Current  []*Booking
	Upcoming []*Booking
}

// CategoryOf places b relative to now. Rules apply in order:
// finalized (completed, cancelled) is past; ended and not active is past;
// active or within its window is current; not yet started is upcoming; anything else is past.
func CategoryOf(b *Booking, now time.Time) Category {
	switch {
	case b.status == StatusCompleted || b.status == StatusCancelled:
		return CategoryPast
	case b.endTime.Before(now) && b.status != StatusActive:
		return CategoryPast
	case b.status == StatusActive || (!b.startTime.After(now) && !b.endTime.Before(now)):
		return CategoryCurrent
	case b.startTime.After(now):
		return CategoryUpcoming
	default:
		return CategoryPast
	}
}

// Categorize partitions bookings, preserving input order within each group.
func Categorize(bookings []*Booking, now time.Time) Categorized {
	out := Categorized{
		Past:     []*Booking{},
		Current:  []*Booking{},
		Upcoming: []*Booking{},
	}
	for _, b := range bookings {
		switch CategoryOf(b, now) {
		case CategoryCurrent:
			out.Current = append(out.Current, b)
		case CategoryUpcoming:
			out.Upcoming = append(out.Upcoming, b)
		default:
			out.Past = append(out.Past, b)
		}
	}
	return out
}
