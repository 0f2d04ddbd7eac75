package models

import (
	"fmt"
)

// SpecFormat discriminates the job-spec variants.
type SpecFormat string

const (
	FormatFlat             SpecFormat = "FLAT"
	FormatFolded           SpecFormat = "FOLDED"
	FormatBookletSelfCover SpecFormat = "BOOKLET_SELF_COVER"
	FormatBookletPlusCover SpecFormat = "BOOKLET_PLUS_COVER"
)

// JobSpec is a tagged variant: Format names the populated member and
// exactly one member is non-nil. Dimensions are thousandths of an inch to
// keep the column integer-only.
type JobSpec struct {
	Format SpecFormat `json:"format"`

	Flat             *FlatSpec             `json:"flat,omitempty"`
	Folded           *FoldedSpec           `json:"folded,omitempty"`
	BookletSelfCover *BookletSelfCoverSpec `json:"bookletSelfCover,omitempty"`
	BookletPlusCover *BookletPlusCoverSpec `json:"bookletPlusCover,omitempty"`
}

// FlatSpec describes a single unfolded piece.
type FlatSpec struct {
	FlatWidth  int64  `json:"flatWidth"`
	FlatHeight int64  `json:"flatHeight"`
	Stock      string `json:"stock"`
}

// FoldedSpec describes a folded piece.
type FoldedSpec struct {
	FlatWidth      int64  `json:"flatWidth"`
	FlatHeight     int64  `json:"flatHeight"`
	FinishedWidth  int64  `json:"finishedWidth"`
	FinishedHeight int64  `json:"finishedHeight"`
	FoldType       string `json:"foldType"`
	Stock          string `json:"stock"`
}

// BookletSelfCoverSpec describes a booklet whose cover is the body stock.
type BookletSelfCoverSpec struct {
	PageCount      int    `json:"pageCount"`
	FinishedWidth  int64  `json:"finishedWidth"`
	FinishedHeight int64  `json:"finishedHeight"`
	BindType       string `json:"bindType"`
	Stock          string `json:"stock"`
}

// BookletPlusCoverSpec describes a booklet with a separate cover stock.
type BookletPlusCoverSpec struct {
	PageCount      int    `json:"pageCount"`
	FinishedWidth  int64  `json:"finishedWidth"`
	FinishedHeight int64  `json:"finishedHeight"`
	BindType       string `json:"bindType"`
	BodyStock      string `json:"bodyStock"`
	CoverStock     string `json:"coverStock"`
}

// Variant returns the populated member for type switching.
func (s *JobSpec) Variant() interface{} {
	switch s.Format {
	case FormatFlat:
		return s.Flat
	case FormatFolded:
		return s.Folded
	case FormatBookletSelfCover:
		return s.BookletSelfCover
	case FormatBookletPlusCover:
		return s.BookletPlusCover
	}
	return nil
}

// Validate checks that Format names exactly the populated member.
func (s *JobSpec) Validate() error {
	set := 0
	if s.Flat != nil {
		set++
	}
	if s.Folded != nil {
		set++
	}
	if s.BookletSelfCover != nil {
		set++
	}
	if s.BookletPlusCover != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("job spec must populate exactly one variant, got %d", set)
	}
	var match bool
	switch s.Format {
	case FormatFlat:
		match = s.Flat != nil
	case FormatFolded:
		match = s.Folded != nil
	case FormatBookletSelfCover:
		match = s.BookletSelfCover != nil
	case FormatBookletPlusCover:
		match = s.BookletPlusCover != nil
	default:
		return fmt.Errorf("unknown job spec format %q", s.Format)
	}
	if !match {
		return fmt.Errorf("job spec format %q does not match populated variant", s.Format)
	}
	return nil
}
