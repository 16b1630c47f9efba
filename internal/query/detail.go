package query

import "github.com/yildizm/logdesk/internal/common"

// DetailView is either closed or open on exactly one record.
// The zero value is closed.
type DetailView struct {
	record *common.LogRecord
}

// ClosedDetail returns a closed view
func ClosedDetail() DetailView {
	return DetailView{}
}

// OpenDetail returns a view open on a copy of r
func OpenDetail(r common.LogRecord) DetailView {
	c := r.Clone()
	return DetailView{record: &c}
}

// IsOpen reports whether a record is selected
func (d DetailView) IsOpen() bool {
	return d.record != nil
}

// Record returns the selected record, if any
func (d DetailView) Record() (common.LogRecord, bool) {
	if d.record == nil {
		return common.LogRecord{}, false
	}
	return d.record.Clone(), true
}

func (d DetailView) clone() DetailView {
	if d.record == nil {
		return d
	}
	return OpenDetail(*d.record)
}
