package convert

import "errors"

var (
	ErrNoFile     = errors.New("file not found")
	ErrTooLarge   = errors.New("file exceeds upload limit")
	ErrInvalidPDF = errors.New("not a valid pdf")
	ErrNoPages    = errors.New("pdf has no pages")
	ErrRasterize  = errors.New("rasterize first page")
)
