package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the timeline.
const SheetName = "timeline"

// WriteXLSX writes the sheet as a one-worksheet workbook.
func WriteXLSX(w io.Writer, s Sheet) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetName); err != nil {
		return fmt.Errorf("%w: xlsx sheet: %w", ErrWrite, err)
	}

	header := make([]any, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := setRow(f, 1, header); err != nil {
		return err
	}
	for i, row := range s.Rows {
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("%w: xlsx panes: %w", ErrWrite, err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%w: xlsx: %w", ErrWrite, err)
	}
	return nil
}

func setRow(f *excelize.File, row int, cells []any) error {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("%w: xlsx cell: %w", ErrWrite, err)
	}
	if err := f.SetSheetRow(SheetName, axis, &cells); err != nil {
		return fmt.Errorf("%w: xlsx row %d: %w", ErrWrite, row, err)
	}
	return nil
}

// Write dispatches on format. JSON is not a sheet format.
func Write(w io.Writer, format Format, s Sheet) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, s)
	case FormatXLSX:
		return WriteXLSX(w, s)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
