package date

import "fmt"

// Range represents a range of dates, boundaries included.
type Range struct{ From, To Date }

// YearTo returns the range that ends on d and starts exactly one calendar year before.
func YearTo(d Date) Range { return Range{From: d.AddYears(-1), To: d} }

// Ordered reports whether From is not after To.
func (r Range) Ordered() bool { return !r.From.After(r.To) }

func (r Range) String() string { return fmt.Sprintf("%s..%s", r.From, r.To) }
