package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/iyhunko/affiliate-catalog/internal/catalog"
	"github.com/iyhunko/affiliate-catalog/internal/client"
	"github.com/iyhunko/affiliate-catalog/internal/model"
	"github.com/spf13/cobra"
)

const (
	serverEnv   = "CATALOG_SERVER"
	passwordEnv = "CATALOG_ADMIN_PASSWORD"
)

type options struct {
	server   string
	password string
	timeout  time.Duration
	message  string
	rollback bool
}

func (o *options) controller() *catalog.Controller {
	opts := []catalog.Option{}
	if o.message != "" {
		opts = append(opts, catalog.WithCommitMessage(o.message))
	}
	if o.rollback {
		opts = append(opts, catalog.WithRollback())
	}
	ctr := catalog.NewController(client.NewClient(o.server, o.timeout), opts...)
	ctr.Login(o.password)
	return ctr
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Manage the affiliate product catalog",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&o.server, "server", envOr(serverEnv, "http://localhost:8080"), "catalog service base URL")
	root.PersistentFlags().StringVar(&o.password, "password", os.Getenv(passwordEnv), "admin password (or "+passwordEnv+")")
	root.PersistentFlags().DurationVar(&o.timeout, "timeout", 30*time.Second, "request timeout")
	root.PersistentFlags().StringVarP(&o.message, "message", "m", "", "commit message for writes")
	root.PersistentFlags().BoolVar(&o.rollback, "rollback", false, "restore the local list when a write fails")

	root.AddCommand(
		newListCmd(o),
		newAddCmd(o),
		newEditCmd(o),
		newRemoveCmd(o),
		newLookupCmd(o),
		newLinkCmd(),
		newExportCmd(o),
		newImportCmd(o),
	)
	return root
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func newListCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products := o.controller().Load(cmd.Context())
			printProducts(cmd.OutOrStdout(), products)
			return nil
		},
	}
}

type productFlags struct {
	title, price, image, url, tag string
	autofill                      bool
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "product title")
	cmd.Flags().StringVar(&f.price, "price", "", "display price")
	cmd.Flags().StringVar(&f.image, "image", "", "image URL")
	cmd.Flags().StringVar(&f.url, "url", "", "product page URL")
	cmd.Flags().StringVar(&f.tag, "tag", "", "affiliate tag")
	cmd.Flags().BoolVar(&f.autofill, "autofill", false, "fill empty fields from the product page")
}

func (f *productFlags) apply(cmd *cobra.Command, p *model.Product) {
	if cmd.Flags().Changed("title") {
		p.Title = f.title
	}
	if cmd.Flags().Changed("price") {
		p.Price = f.price
	}
	if cmd.Flags().Changed("image") {
		p.Image = f.image
	}
	if cmd.Flags().Changed("url") {
		p.URL = f.url
	}
	if cmd.Flags().Changed("tag") {
		p.Tag = f.tag
	}
}

func saveProduct(ctx context.Context, out io.Writer, ctr *catalog.Controller, p model.Product, autofill bool) error {
	if autofill {
		filled, err := ctr.AutoFill(ctx, p)
		if err != nil {
			return err
		}
		p = filled
	}
	saved, err := ctr.Save(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved %s\n", saved.ID)
	return nil
}

func newAddCmd(o *options) *cobra.Command {
	f := &productFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctr := o.controller()
			ctr.Load(cmd.Context())
			var p model.Product
			f.apply(cmd, &p)
			return saveProduct(cmd.Context(), cmd.OutOrStdout(), ctr, p, f.autofill)
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCmd(o *options) *cobra.Command {
	f := &productFlags{}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a product and move it to the front",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctr := o.controller()
			ctr.Load(cmd.Context())
			p, ok := ctr.StageEdit(args[0])
			if !ok {
				return fmt.Errorf("product %s not found", args[0])
			}
			f.apply(cmd, &p)
			return saveProduct(cmd.Context(), cmd.OutOrStdout(), ctr, p, f.autofill)
		},
	}
	f.register(cmd)
	return cmd
}

func newRemoveCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctr := o.controller()
			ctr.Load(cmd.Context())
			if err := ctr.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func newLookupCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <url>",
		Short: "Show metadata scraped from a product page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := client.NewClient(o.server, o.timeout).LookupMetadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "title: %s\n", orNull(meta.Title))
			fmt.Fprintf(out, "image: %s\n", orNull(meta.Image))
			fmt.Fprintf(out, "price: %s\n", orNull(meta.Price))
			return nil
		},
	}
}

func orNull(s *string) string {
	if s == nil {
		return "null"
	}
	return *s
}

func newLinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link <url> [tag]",
		Short: "Print the affiliate link for a product URL",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := ""
			if len(args) == 2 {
				tag = args[1]
			}
			fmt.Fprintln(cmd.OutOrStdout(), catalog.GenerateLink(args[0], tag))
			return nil
		},
	}
}

func newExportCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the catalog document to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctr := o.controller()
			ctr.Load(cmd.Context())
			data, err := ctr.Export()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		},
	}
}

func newImportCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the catalog with a JSON document (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			ctr := o.controller()
			if err := ctr.Import(data); err != nil {
				return err
			}
			if err := ctr.Push(cmd.Context(), o.message); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d products\n", len(ctr.Products()))
			return nil
		},
	}
}

func printProducts(out io.Writer, products model.Catalog) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE\tLINK")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Price, catalog.GenerateLink(p.URL, p.Tag))
	}
	_ = w.Flush()
}
