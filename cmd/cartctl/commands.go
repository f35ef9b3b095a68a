package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// app holds what every subcommand needs. Stores and the catalog are opened
// lazily so `products` works without a reachable backend.
type app struct {
	storageKey  string
	flatTax     float64
	logg        *logger.Logger
	openStore   func(ctx context.Context) (cart.Store, func() error, error)
	loadCatalog func() (*catalog.Catalog, error)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "cartctl",
		Short:        "Inspect and edit the persisted storefront cart",
		SilenceUsage: true,
	}

	var addQuantity int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a catalog product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			if addQuantity < 1 {
				return fmt.Errorf("--quantity must be at least 1")
			}
			products, err := a.loadCatalog()
			if err != nil {
				return err
			}
			product, err := products.Get(productID)
			if err != nil {
				return err
			}
			return a.withCart(cmd.Context(), func(mgr *cart.Manager) error {
				for i := 0; i < addQuantity; i++ {
					mgr.AddToCart(cmd.Context(), product)
				}
				return a.printCart(cmd.OutOrStdout(), mgr)
			})
		},
	}
	add.Flags().IntVarP(&addQuantity, "quantity", "q", 1, "units to add")

	root.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the cart and its summary",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withCart(cmd.Context(), func(mgr *cart.Manager) error {
					return a.printCart(cmd.OutOrStdout(), mgr)
				})
			},
		},
		add,
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a product line from the cart",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				productID, err := parseProductID(args[0])
				if err != nil {
					return err
				}
				return a.withCart(cmd.Context(), func(mgr *cart.Manager) error {
					mgr.RemoveFromCart(cmd.Context(), productID)
					return a.printCart(cmd.OutOrStdout(), mgr)
				})
			},
		},
		&cobra.Command{
			Use:   "set <product-id> <quantity>",
			Short: "Set a line's quantity; zero or less removes it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				productID, err := parseProductID(args[0])
				if err != nil {
					return err
				}
				quantity, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("quantity must be an integer: %w", err)
				}
				return a.withCart(cmd.Context(), func(mgr *cart.Manager) error {
					mgr.UpdateQuantity(cmd.Context(), productID, quantity)
					return a.printCart(cmd.OutOrStdout(), mgr)
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withCart(cmd.Context(), func(mgr *cart.Manager) error {
					mgr.ClearCart(cmd.Context())
					return a.printCart(cmd.OutOrStdout(), mgr)
				})
			},
		},
		&cobra.Command{
			Use:   "products",
			Short: "List the catalog",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				products, err := a.loadCatalog()
				if err != nil {
					return err
				}
				return printProducts(cmd.OutOrStdout(), products.List())
			},
		},
	)
	return root
}

// withCart loads the persisted cart, runs fn against it and closes the store.
// Mutations persist synchronously, so the cart is saved when fn returns.
func (a *app) withCart(ctx context.Context, fn func(*cart.Manager) error) (err error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeStore(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	mgr, err := cart.NewManager(cart.ManagerParams{
		Store:      store,
		StorageKey: a.storageKey,
		Logger:     a.logg,
	})
	if err != nil {
		return err
	}
	mgr.Start(ctx)
	defer mgr.Close()

	if err := mgr.WaitReady(ctx); err != nil {
		return err
	}
	return fn(mgr)
}

func (a *app) printCart(out io.Writer, mgr *cart.Manager) error {
	snap := mgr.Snapshot(a.flatTax)
	if _, err := fmt.Fprintf(out, "cart %q\n", mgr.StorageKey()); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tLINE")
	for _, line := range snap.Items {
		price := decimal.NewFromFloat(line.Product.Price)
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
			line.Product.ID,
			line.Product.Name,
			line.Quantity,
			price.StringFixed(2),
			price.Mul(decimal.NewFromInt(int64(line.Quantity))).StringFixed(2),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "items: %d  subtotal: %s  tax: %s  total: %s\n",
		snap.Summary.TotalItems,
		snap.Summary.Subtotal.StringFixed(2),
		snap.Summary.Tax.StringFixed(2),
		snap.Summary.Total.StringFixed(2),
	)
	return err
}

func printProducts(out io.Writer, products []catalog.Product) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
	for _, p := range products {
		category := p.Category
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.Name, category, decimal.NewFromFloat(p.Price).StringFixed(2))
	}
	return tw.Flush()
}

func parseProductID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("product id must be a positive integer, got %q", raw)
	}
	return id, nil
}
