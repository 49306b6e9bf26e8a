// Command sf is a terminal storefront client: browse shops, manage a
// vendor's shop, fill a cart and check out.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/and161185/storefront/internal/api"
	"github.com/and161185/storefront/internal/config"
	"github.com/and161185/storefront/internal/logging"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `sf storefront CLI
Usage:
  sf [-config file] [-api URL] [-storage file|redis|postgres|memory] [-log-level L] <cmd> [args]

Account:
  register         -dni -name -surname -email -password -confirm
  login            -email -password [-dni <cross-check>] [-shop <slug>]
  logout
  whoami
  verify           -code <code>
  forgot-password  -dni -email
  reset-password   -token -password
  passwd           -current -new

Browsing:
  shops
  shop             <slug>
  products         [-shop <slug>] [-q term] [-category id] [-sort a-z|z-a|precio-menor|precio-mayor|nuevos|viejos]
  categories       [-shop <slug>]

Vendor:
  dashboard
  store-config     -name [-slug] [-desc] [-shipping N] [-logo file] [-banner file]...
  category-add     -name [-desc]
  category-rename  -id -name [-desc]
  category-rm      -id
  product-add      -name -price -stock -image file... [-desc] [-category id]
  product-edit     -id [-name] [-price] [-stock] [-desc] [-category id] [-image file]... [-drop-images]
  product-rm       -id
  orders           [-status S]
  order-status     -id -status S

Buyer:
  cart             [-shop <slug>]
  cart-add         -product id [-qty N] [-shop <slug>]
  cart-qty         -item id -qty N [-qty N]... [-shop <slug>]
  cart-rm          -item id [-shop <slug>]
  cart-clear       [-shop <slug>]
  addresses
  checkout         -method home|pickup [-address id | -street -number -city -province -postal [-floor] [-apt] [-save]] [-shop <slug>] [-wait]
  my-orders        [-shop <slug>]
  order            -id [-shop <slug>]

Other:
  users
  version
`)
}

// main parses global flags, builds the app and dispatches the subcommand.
func main() {
	cfgPath := flag.String("config", "", "config file (default "+config.DefaultPath()+")")
	apiURL := flag.String("api", "", "API base URL")
	backend := flag.String("storage", "", "session storage backend")
	level := flag.String("log-level", "", "log level")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]
	if cmd == "version" {
		fmt.Printf("sf %s (%s)\n", version, buildDate)
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fail(err)
	}
	if err := applyFlags(&cfg, *apiURL, *backend, *level); err != nil {
		fail(err)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fail(err)
	}
	defer func() { _ = log.Sync() }()

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, os.Stdout, os.Stderr)
	if err != nil {
		fail(err)
	}
	err = run(ctx, a, cmd, args)
	a.close()
	if errors.Is(err, errUsage) {
		usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

// applyFlags lets global flags override the loaded configuration.
func applyFlags(cfg *config.Config, apiURL, backend, level string) error {
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if backend != "" {
		cfg.Storage = backend
	}
	if level != "" {
		cfg.LogLevel = level
	}
	return cfg.Validate()
}

var errUsage = errors.New("usage")

// run dispatches one subcommand.
func run(ctx context.Context, a *app, cmd string, args []string) error {
	switch cmd {
	case "register":
		return cmdRegister(ctx, a, args)
	case "login":
		return cmdLogin(ctx, a, args)
	case "logout":
		return cmdLogout(ctx, a, args)
	case "whoami":
		return cmdWhoami(ctx, a, args)
	case "verify":
		return cmdVerify(ctx, a, args)
	case "forgot-password":
		return cmdForgotPassword(ctx, a, args)
	case "reset-password":
		return cmdResetPassword(ctx, a, args)
	case "passwd":
		return cmdPasswd(ctx, a, args)

	case "shops":
		return cmdShops(ctx, a, args)
	case "shop":
		return cmdShop(ctx, a, args)
	case "products":
		return cmdProducts(ctx, a, args)
	case "categories":
		return cmdCategories(ctx, a, args)

	case "store-config":
		return cmdStoreConfig(ctx, a, args)
	case "category-add":
		return cmdCategoryAdd(ctx, a, args)
	case "category-rename":
		return cmdCategoryRename(ctx, a, args)
	case "category-rm":
		return cmdCategoryRm(ctx, a, args)
	case "product-add":
		return cmdProductAdd(ctx, a, args)
	case "product-edit":
		return cmdProductEdit(ctx, a, args)
	case "product-rm":
		return cmdProductRm(ctx, a, args)
	case "dashboard":
		return cmdDashboard(ctx, a, args)
	case "orders":
		return cmdOrders(ctx, a, args)
	case "order-status":
		return cmdOrderStatus(ctx, a, args)

	case "cart":
		return cmdCart(ctx, a, args)
	case "cart-add":
		return cmdCartAdd(ctx, a, args)
	case "cart-qty":
		return cmdCartQty(ctx, a, args)
	case "cart-rm":
		return cmdCartRm(ctx, a, args)
	case "cart-clear":
		return cmdCartClear(ctx, a, args)
	case "addresses":
		return cmdAddresses(ctx, a, args)
	case "checkout":
		return cmdCheckout(ctx, a, args)
	case "my-orders":
		return cmdMyOrders(ctx, a, args)
	case "order":
		return cmdOrder(ctx, a, args)

	case "users":
		return cmdUsers(ctx, a, args)
	}
	return errUsage
}

func fail(err error) {
	var ae *api.Error
	if errors.As(err, &ae) && ae.Status != 0 {
		fmt.Fprintf(os.Stderr, "error: status=%d msg=%s\n", ae.Status, err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
