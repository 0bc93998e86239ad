package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gachi-analyzer/domain/timeline"
	"gachi-analyzer/domain/video"
)

// Output formats for analyze results
const (
	FormatCSV   = "csv"
	FormatTable = "table"
	FormatJSON  = "json"
)

func validateFormat(format string) error {
	switch format {
	case FormatCSV, FormatTable, FormatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use csv, table or json)", format)
	}
}

// writeBattles prints battles in the requested format
func writeBattles(out io.Writer, format string, battles []timeline.Battle) error {
	switch format {
	case FormatTable:
		return writeBattlesTable(out, battles)
	case FormatJSON:
		return writeBattlesJSON(out, battles)
	default:
		return writeBattlesCSV(out, battles)
	}
}

// writeBattlesCSV prints one "start_time,duration" line per battle
func writeBattlesCSV(out io.Writer, battles []timeline.Battle) error {
	for _, b := range battles {
		if _, err := fmt.Fprintf(out, "%s,%d\n", formatSeconds(b.StartTime), b.Duration); err != nil {
			return err
		}
	}
	return nil
}

func writeBattlesTable(out io.Writer, battles []timeline.Battle) error {
	if len(battles) == 0 {
		_, err := fmt.Fprintln(out, "No battles found.")
		return err
	}

	rows := make([][]string, 0, len(battles))
	for i, b := range battles {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			video.TimestampFromSeconds(b.StartTime).String(),
			formatSeconds(b.StartTime),
			video.TimestampFromSeconds(float64(b.Duration)).String(),
		})
	}
	table := renderTable(
		[]string{"#", "Start", "Start (s)", "Duration"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	)
	_, err := fmt.Fprintln(out, table)
	return err
}

type battleJSON struct {
	StartTime float64 `json:"start_time"`
	Duration  int     `json:"duration"`
}

func writeBattlesJSON(out io.Writer, battles []timeline.Battle) error {
	payload := make([]battleJSON, 0, len(battles))
	for _, b := range battles {
		payload = append(payload, battleJSON{StartTime: b.StartTime, Duration: b.Duration})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// writeEvents prints the collapsed screen timeline
func writeEvents(out io.Writer, events []timeline.Event) error {
	for _, e := range events {
		label := e.Label.String()
		if _, err := fmt.Fprintf(out, "Time:%9.3f ~ %9.3f, Frame:%6d ~ %6d, Event=%s\n",
			e.StartTime, e.EndTime, e.StartFrame, e.EndFrame, label); err != nil {
			return err
		}
	}
	return nil
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', -1, 64)
}

func joinFormats() string {
	return strings.Join([]string{FormatCSV, FormatTable, FormatJSON}, ", ")
}
