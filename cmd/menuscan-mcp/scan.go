package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/ironsheep/menuscan-mcp/internal/config"
	"github.com/ironsheep/menuscan-mcp/internal/dish"
	"github.com/ironsheep/menuscan-mcp/internal/imaging"
	"github.com/ironsheep/menuscan-mcp/internal/progress"
	"github.com/ironsheep/menuscan-mcp/internal/scan"
)

func newScanCommand(exec string, cfg *config.Config, stdout, stderr io.Writer) *ffcli.Command {
	fs := flag.NewFlagSet(exec+" scan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	scanType := fs.String("type", string(dish.ScanTypeMenu), "what the photo shows: menu or dish")
	lang := fs.String("lang", string(dish.English), "target language for names and details")
	format := fs.String("format", "json", "output format: json or table")
	quiet := fs.Bool("q", false, "do not print progress")

	return &ffcli.Command{
		Name:       "scan",
		ShortUsage: fmt.Sprintf("%v [flags] scan [-type menu|dish] [-lang L] [-format table|json] <image>", exec),
		ShortHelp:  "scan one image and print the dishes",
		LongHelp:   "The image may be a file path, an http(s) URL or a data: URI.",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return flag.ErrHelp
			}
			if *format != "table" && *format != "json" {
				return fmt.Errorf("unknown format %q", *format)
			}
			if err := cfg.Complete(); err != nil {
				return err
			}

			session, err := newSession(*cfg, log.Default())
			if err != nil {
				return err
			}

			req := scan.Request{
				Source:   imaging.ParseSource(args[0], nil),
				ScanType: dish.ScanType(*scanType),
				Language: dish.Language(*lang),
			}
			if err := req.Validate(); err != nil {
				return err
			}

			var cb scan.Callbacks
			if !*quiet {
				cb.OnProgress = func(u progress.Update) {
					fmt.Fprintf(stderr, "\r%3.0f%% %-32s", u.Progress, u.Status)
				}
			}

			res, err := session.Run(ctx, req, cb)
			if !*quiet {
				fmt.Fprintln(stderr)
			}
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				return fmt.Errorf("%s: %w", scan.StatusMessage(err), err)
			}

			if *format == "json" {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printTable(stdout, res)
			return nil
		},
	}
}

func printTable(w io.Writer, res *scan.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Original", "Name", "Category", "Spice", "Allergens", "Box"})
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")

	for i, d := range res.Dishes {
		box := d.BoundingBox.String()
		if d.IsOCRRefined {
			box = color.GreenString(box)
		}
		table.Append([]string{
			fmt.Sprint(i + 1),
			d.OriginalName,
			d.Name,
			d.Category,
			spice(d.SpiceLevel),
			strings.Join(d.Allergens, ", "),
			box,
		})
	}
	table.Render()

	kind := "dish photo"
	if res.IsMenu {
		kind = "menu"
	}
	fmt.Fprintf(w, "%s: %d dishes, %d placed from %d OCR lines, %d images preloaded, %s\n",
		kind, len(res.Dishes), res.Refined, res.OCRLines,
		res.Preload.Loaded, humanize.FormatFloat("#,###.##", res.Elapsed.Seconds())+"s")
}

func spice(l dish.SpiceLevel) string {
	switch l {
	case dish.SpiceMild:
		return color.YellowString(string(l))
	case dish.SpiceMedium:
		return color.HiRedString(string(l))
	case dish.SpiceHot:
		return color.RedString(string(l))
	default:
		return string(l)
	}
}
