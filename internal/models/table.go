package models

// Table is a summary table in one of two states: populated with rows, or a
// well-formed no-data placeholder carrying the reason. The rendering layer
// draws a title-only empty chart for the no-data branch instead of treating
// it as a failure.
type Table[T any] struct {
	Rows   []T    `json:"rows"`
	NoData bool   `json:"no_data"`
	Reason string `json:"reason,omitempty"`
}

func Populated[T any](rows []T) Table[T] {
	if rows == nil {
		rows = []T{}
	}
	return Table[T]{Rows: rows}
}

func Empty[T any](reason string) Table[T] {
	return Table[T]{Rows: []T{}, NoData: true, Reason: reason}
}
