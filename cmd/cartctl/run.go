package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/harvestconnect/harvestcart/internal/cart"
	"github.com/harvestconnect/harvestcart/internal/kvstore"
	"github.com/harvestconnect/harvestcart/internal/notifications"
	"github.com/harvestconnect/harvestcart/pkg/logger"
	"github.com/shopspring/decimal"
)

const usage = `usage: cartctl [-dir DIR] [-key KEY] [-session ID] <command> [args]

commands:
  list                              print the cart lines
  total                             print item count and total price
  add <id> <title> <price> [qty] [image]
  update <id> <qty>                 set an absolute quantity (<=0 removes)
  remove <id>
  clear`

var errUsage = errors.New("invalid usage")

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cartctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", ".harvest/carts", "directory holding cart files")
	key := fs.String("key", cart.DefaultStorageKey, "storage key")
	session := fs.String("session", "", "optional session id to scope the key")
	level := fs.String("log-level", "warn", "log level")
	fs.Usage = func() { fmt.Fprintln(stderr, usage) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	logg := logger.New(logger.Options{
		ServiceName: "cartctl",
		Level:       logger.ParseLevel(*level),
		Output:      stderr,
		Format:      logger.FormatConsole,
	})
	ctx := logg.WithField(context.Background(), "cart_dir", *dir)

	file, err := kvstore.NewFile(*dir)
	if err != nil {
		logg.Error(ctx, "failed to open cart directory", err)
		return 1
	}
	var kv cart.KeyValueStore = file
	if *session != "" {
		kv = kvstore.NewScoped(file, *session)
		ctx = logg.WithSessionID(ctx, *session)
	}

	store, err := cart.NewStore(cart.StoreParams{
		KV:         kv,
		Notifier:   notifications.NewFanout(logg, consoleNotifier{out: stdout}, notifications.NewLogger(ctx, logg)),
		Logger:     logg,
		Key:        *key,
		LogContext: ctx,
	})
	if err != nil {
		logg.Error(ctx, "failed to build cart store", err)
		return 1
	}

	if err := dispatch(store, fs.Arg(0), fs.Args()[1:], stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "%v\n%s\n", err, usage)
			return 2
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func dispatch(store *cart.Store, command string, args []string, out io.Writer) error {
	switch command {
	case "list":
		printItems(out, store.Items())
	case "total":
		snap := store.Snapshot()
		fmt.Fprintf(out, "items: %d\ntotal: %s\n", snap.TotalItems, formatPrice(snap.TotalPrice))
	case "add":
		item, err := parseAdd(args)
		if err != nil {
			return err
		}
		store.AddItem(item)
	case "update":
		if len(args) != 2 {
			return fmt.Errorf("%w: update takes <id> <qty>", errUsage)
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil || qty > cart.MaxInputQuantity {
			return fmt.Errorf("%w: quantity %q must be an integer up to %d", errUsage, args[1], cart.MaxInputQuantity)
		}
		store.UpdateQuantity(id, qty)
	case "remove":
		if len(args) != 1 {
			return fmt.Errorf("%w: remove takes <id>", errUsage)
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		store.RemoveItem(id)
	case "clear":
		store.ClearCart()
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
	return nil
}

func parseAdd(args []string) (cart.LineItem, error) {
	if len(args) < 3 || len(args) > 5 {
		return cart.LineItem{}, fmt.Errorf("%w: add takes <id> <title> <price> [qty] [image]", errUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return cart.LineItem{}, err
	}
	price, err := decimal.NewFromString(args[2])
	if err != nil || price.IsNegative() || price.GreaterThan(decimal.NewFromInt(cart.MaxInputPrice)) {
		return cart.LineItem{}, fmt.Errorf("%w: price %q must be between 0 and %d", errUsage, args[2], cart.MaxInputPrice)
	}
	item := cart.LineItem{ID: id, Title: args[1], Price: price.InexactFloat64(), Quantity: 1}
	if len(args) >= 4 {
		qty, err := strconv.Atoi(args[3])
		if err != nil || qty < 1 || qty > cart.MaxInputQuantity {
			return cart.LineItem{}, fmt.Errorf("%w: quantity %q must be between 1 and %d", errUsage, args[3], cart.MaxInputQuantity)
		}
		item.Quantity = qty
	}
	if len(args) == 5 {
		item.Image = args[4]
	}
	return item, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: id %q must be a positive integer", errUsage, raw)
	}
	return id, nil
}

func printItems(out io.Writer, items []cart.LineItem) {
	if len(items) == 0 {
		fmt.Fprintln(out, "cart is empty")
		return
	}
	for _, item := range items {
		fmt.Fprintf(out, "%d\t%s\t%s x %d\t%s\n", item.ID, item.Title, formatPrice(item.Price), item.Quantity, formatPrice(item.Subtotal()))
	}
}

func formatPrice(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

type consoleNotifier struct {
	out io.Writer
}

func (c consoleNotifier) Notify(message string, kind cart.Kind) {
	fmt.Fprintf(c.out, "[%s] %s\n", kind, message)
}
