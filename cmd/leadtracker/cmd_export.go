package main

import (
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/osr-alliance/backend-lead-tracker/internal/export"
	"github.com/osr-alliance/backend-lead-tracker/internal/filter"
)

// filterFlags are the filter query parameters, settable as flags of the same name with dashes
var filterFlags = []string{"status", "source", "licence", "search", "first_contacted", "scheduled_walk_in", "first_contacted_from", "first_contacted_to"}

var (
	exportCmd = &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Write the leads, optionally filtered, to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}

	templateCmd = &cobra.Command{
		Use:   "template <file.xlsx>",
		Short: "Write an empty upload template",
		Args:  cobra.ExactArgs(1),
		RunE:  runTemplate,
	}
)

func init() {
	for _, name := range filterFlags {
		exportCmd.Flags().String(flagName(name), "", "filter on "+name)
	}
}

func flagName(param string) string {
	return strings.ReplaceAll(param, "_", "-")
}

func filterFrom(cmd *cobra.Command) (filter.Filter, error) {
	v := url.Values{}
	for _, name := range filterFlags {
		if s, _ := cmd.Flags().GetString(flagName(name)); s != "" {
			v.Set(name, s)
		}
	}
	return filter.Parse(v)
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithField("cmd", "export")

	f, err := filterFrom(cmd)
	if err != nil {
		return err
	}

	st, c, err := openStore(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	all, err := st.FetchAll(cmd.Context())
	if err != nil {
		return err
	}
	ls := filter.Apply(all, f)

	if err := writeFile(args[0], func(out *os.File) error { return export.Leads(out, ls) }); err != nil {
		return err
	}
	log.WithField("rows", len(ls)).WithField("file", args[0]).Info("leads exported")
	return nil
}

func runTemplate(cmd *cobra.Command, args []string) error {
	return writeFile(args[0], func(out *os.File) error { return export.Template(out) })
}

func writeFile(path string, write func(*os.File) error) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(out); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
