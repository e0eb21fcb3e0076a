package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/felixgeelhaar/memorymap/internal/memorymap"
	"github.com/felixgeelhaar/memorymap/internal/tui"
	"github.com/felixgeelhaar/memorymap/internal/validation"
)

const dateLayout = "2006-01-02"

func newMapsCmd(cc *CommandContext) *cobra.Command {
	mapsCmd := &cobra.Command{
		Use:     "maps",
		Aliases: []string{"map"},
		Short:   "Manage your memory maps",
		Long: `Manage the memory maps of the logged-in user.

Subcommands:
  list    List memory maps
  show    Show one memory map
  create  Create a memory map
  update  Replace the fields of a memory map
  delete  Delete a memory map

Examples:
  memorymap maps list
  memorymap maps create --title "Lisbon" --description "Trams and tiles"
  memorymap maps delete 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	mapsCmd.AddCommand(
		newMapsListCmd(cc),
		newMapsShowCmd(cc),
		newMapsCreateCmd(cc),
		newMapsUpdateCmd(cc),
		newMapsDeleteCmd(cc),
	)
	return mapsCmd
}

// mapList renders as a table in text output.
type mapList []memorymap.MemoryMap

// RenderText implements ux.TextRenderer.
func (l mapList) RenderText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "No memory maps yet. Create your first one!")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDESCRIPTION\tCREATED") //nolint:errcheck
	fmt.Fprintln(tw, "--\t-----\t-----------\t-------") //nolint:errcheck
	for _, m := range l {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.ID, m.Title, truncate(m.Summary(), 40), formatDate(m)) //nolint:errcheck
	}
	return tw.Flush()
}

// mapDetail renders every field in text output.
type mapDetail memorymap.MemoryMap

// RenderText implements ux.TextRenderer.
func (d mapDetail) RenderText(w io.Writer) error {
	m := memorymap.MemoryMap(d)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", m.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", m.Title)
	fmt.Fprintf(tw, "Description:\t%s\n", m.Summary())
	if m.Tags != "" {
		fmt.Fprintf(tw, "Tags:\t%s\n", m.Tags)
	}
	if m.LocationName != "" {
		fmt.Fprintf(tw, "Location:\t%s\n", m.LocationName)
	}
	if m.Latitude != nil && m.Longitude != nil {
		fmt.Fprintf(tw, "Coordinates:\t%.5f, %.5f\n", *m.Latitude, *m.Longitude)
	}
	if m.InstagramURL != "" {
		fmt.Fprintf(tw, "Instagram:\t%s\n", m.InstagramURL)
	}
	fmt.Fprintf(tw, "Created:\t%s\n", formatDate(m))
	return tw.Flush()
}

func newMapsListCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List memory maps",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cc.RequireLogin(); err != nil {
				return err
			}

			maps, err := cc.Maps.List(cmd.Context()).Unwrap()
			if err != nil {
				return err
			}
			return cc.Output(mapList(maps))
		},
	}
}

func newMapsShowCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one memory map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cc.RequireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			m, err := cc.Maps.Get(cmd.Context(), id).Unwrap()
			if err != nil {
				return err
			}
			return cc.Output(mapDetail(m))
		},
	}
}

// mapFlags binds the writable fields of a memory map.
type mapFlags struct {
	input     memorymap.Input
	latitude  float64
	longitude float64
}

func (f *mapFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.input.Title, "title", "", "title")
	flags.StringVar(&f.input.Description, "description", "", "description")
	flags.StringVar(&f.input.Tags, "tags", "", "comma-separated tags")
	flags.StringVar(&f.input.LocationName, "location", "", "location name")
	flags.Float64Var(&f.latitude, "latitude", 0, "latitude (-90 to 90)")
	flags.Float64Var(&f.longitude, "longitude", 0, "longitude (-180 to 180)")
	flags.StringVar(&f.input.InstagramURL, "instagram", "", "Instagram post URL")
}

// apply copies changed flags onto in.
func (f *mapFlags) apply(flags *pflag.FlagSet, in *memorymap.Input) {
	set := map[string]func(){
		"title":       func() { in.Title = f.input.Title },
		"description": func() { in.Description = f.input.Description },
		"tags":        func() { in.Tags = f.input.Tags },
		"location":    func() { in.LocationName = f.input.LocationName },
		"instagram":   func() { in.InstagramURL = f.input.InstagramURL },
		"latitude":    func() { in.Latitude = &f.latitude },
		"longitude":   func() { in.Longitude = &f.longitude },
	}
	flags.Visit(func(fl *pflag.Flag) {
		if fn, ok := set[fl.Name]; ok {
			fn()
		}
	})
}

func newMapsCreateCmd(cc *CommandContext) *cobra.Command {
	var f mapFlags

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a memory map",
		Long: `Create a memory map. Without --title the fields are prompted for in an
interactive terminal.

Examples:
  memorymap maps create --title "Lisbon" --description "Trams and tiles" --tags travel,food`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cc.RequireLogin(); err != nil {
				return err
			}

			var in memorymap.Input
			f.apply(cmd.Flags(), &in)
			missing := emptyFlags(cmd, "title")
			if err := cc.fillInteractively(func() *huh.Form { return tui.NewMapForm(&in) }, missing); err != nil {
				return err
			}
			if err := validation.Check(in); err != nil {
				return err
			}

			m, err := cc.Maps.Create(cmd.Context(), in).Unwrap()
			if err != nil {
				return err
			}
			return cc.Report(fmt.Sprintf("Created memory map %d: %s", m.ID, m.Title), m)
		},
	}

	f.register(createCmd.Flags())
	return createCmd
}

func newMapsUpdateCmd(cc *CommandContext) *cobra.Command {
	var f mapFlags

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a memory map",
		Long: `Update a memory map. Fields without a flag keep their current value.

Examples:
  memorymap maps update 7 --description "Trams, tiles and pastéis"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cc.RequireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			current, err := cc.Maps.Get(ctx, id).Unwrap()
			if err != nil {
				return err
			}

			in := memorymap.Input{
				Title:        current.Title,
				Description:  current.Description,
				Tags:         current.Tags,
				Latitude:     current.Latitude,
				Longitude:    current.Longitude,
				LocationName: current.LocationName,
				InstagramURL: current.InstagramURL,
			}
			f.apply(cmd.Flags(), &in)
			if err := validation.Check(in); err != nil {
				return err
			}

			m, err := cc.Maps.Update(ctx, id, in).Unwrap()
			if err != nil {
				return err
			}
			return cc.Report(fmt.Sprintf("Updated memory map %d: %s", m.ID, m.Title), m)
		},
	}

	f.register(updateCmd.Flags())
	return updateCmd
}

func newMapsDeleteCmd(cc *CommandContext) *cobra.Command {
	var yes bool

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a memory map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cc.RequireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if !yes && !cc.confirm(fmt.Sprintf("Delete memory map %d?", id), false) {
				return cc.Report("Aborted.", map[string]any{"deleted": false, "id": id})
			}

			if err := cc.Maps.Delete(cmd.Context(), id).Err(); err != nil {
				return err
			}
			return cc.Report(fmt.Sprintf("Deleted memory map %d.", id), map[string]any{"deleted": true, "id": id})
		},
	}

	deleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without confirmation")
	return deleteCmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, InvalidIDError(arg)
	}
	return id, nil
}

func formatDate(m memorymap.MemoryMap) string {
	if m.CreatedAt.IsZero() {
		return "-"
	}
	return m.CreatedAt.Local().Format(dateLayout)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
