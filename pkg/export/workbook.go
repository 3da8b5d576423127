// Package export writes engine snapshots to xlsx workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"lens-viewer/pkg/engine"
)

const (
	SheetFrames = "Frames"
	SheetZones  = "Zones"
	SheetHeap   = "Heap"
	SheetWindow = "Window"
)

var (
	framesHeader = []interface{}{"Number", "Start (s)", "End (s)", "Duration (ns)", "Detailed"}
	zonesHeader  = []interface{}{"Thread ID", "Thread", "Zone", "Start (s)", "End (s)", "Duration (ns)", "Depth", "Entry ID", "Zone UID"}
	heapHeader   = []interface{}{"Time (s)", "Used (bytes)"}
)

// WriteWorkbook renders snap as an xlsx workbook into w.
func WriteWorkbook(w io.Writer, snap engine.Snapshot) error {
	f, err := build(snap)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook writes snap to an xlsx file at path.
func SaveWorkbook(path string, snap engine.Snapshot) error {
	if path == "" {
		return fmt.Errorf("file path is empty")
	}
	f, err := build(snap)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func build(snap engine.Snapshot) (*excelize.File, error) {
	f := excelize.NewFile()

	// NewFile starts with a single default sheet; reuse it for frames.
	if err := f.SetSheetName(f.GetSheetName(0), SheetFrames); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range []string{SheetZones, SheetHeap, SheetWindow} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	writers := []func(*excelize.File, engine.Snapshot) error{
		writeFrames,
		writeZones,
		writeHeap,
		writeWindow,
	}
	for _, write := range writers {
		if err := write(f, snap); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeFrames(f *excelize.File, snap engine.Snapshot) error {
	rows := make([][]interface{}, 0, len(snap.Frames)+1)
	rows = append(rows, framesHeader)
	for _, fr := range snap.Frames {
		rows = append(rows, []interface{}{fr.Number, fr.Start, fr.End, fr.DurationNs, snap.Detailed})
	}
	return writeRows(f, SheetFrames, rows)
}

// writeZones lists zones grouped by thread, threads ascending, with names
// resolved through the snapshot tables.
func writeZones(f *excelize.File, snap engine.Snapshot) error {
	rows := [][]interface{}{zonesHeader}
	for _, id := range snap.Threads {
		thread := snap.ThreadName(id)
		for _, z := range snap.Zones[id] {
			rows = append(rows, []interface{}{
				id, thread, snap.ZoneName(z.NameID),
				z.Start, z.End, z.DurationNs, z.Depth, z.EntryID, z.ZoneUID,
			})
		}
	}
	return writeRows(f, SheetZones, rows)
}

func writeHeap(f *excelize.File, snap engine.Snapshot) error {
	rows := make([][]interface{}, 0, len(snap.Heap)+1)
	rows = append(rows, heapHeader)
	for _, s := range snap.Heap {
		rows = append(rows, []interface{}{s.T, s.Used})
	}
	return writeRows(f, SheetHeap, rows)
}

func writeWindow(f *excelize.File, snap engine.Snapshot) error {
	rows := [][]interface{}{
		{"Session", snap.SessionID},
		{"Window start (s)", snap.Window.Min},
		{"Window end (s)", snap.Window.Max},
		{"Data end (s)", snap.DataEnd},
		{"Detailed frames", snap.Detailed},
		{"Autoscroll", snap.Autoscroll},
		{"Threads", len(snap.Threads)},
	}
	return writeRows(f, SheetWindow, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
