package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/storefront/internal/api"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/route"
	"github.com/and161185/storefront/internal/validate"
)

func cmdShops(ctx context.Context, a *app, _ []string) error {
	a.at(route.Shops)
	shops, err := a.api.Stores(ctx)
	if err != nil {
		return err
	}
	return printJSON(a.out, shops)
}

func cmdShop(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	shop, err := a.openShop(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(a.out, shop)
}

func cmdProducts(ctx context.Context, a *app, args []string) error {
	fs := newFlags("products", a.errOut)
	slug := fs.String("shop", "", "shop slug (default: active shop)")
	term := fs.String("q", "", "search term")
	category := fs.Int64("category", 0, "category id")
	sort := fs.String("sort", "", "a-z, z-a, precio-menor, precio-mayor, nuevos (default) or viejos")
	if err := fs.Parse(args); err != nil {
		return err
	}
	order, ok := model.ParseProductOrder(*sort)
	if !ok {
		return fmt.Errorf("unknown -sort %q", *sort)
	}
	shop, err := a.openShop(ctx, *slug, "catalogo")
	if err != nil {
		return err
	}

	var products []model.Product
	switch {
	case *term != "":
		products, err = a.api.SearchProducts(ctx, shop.Slug, *term)
	case *category > 0:
		products, err = a.api.ProductsByCategory(ctx, shop.Slug, *category)
	default:
		products, err = a.api.Products(ctx, shop.Slug, "")
	}
	if err != nil {
		return err
	}
	if products == nil {
		products = []model.Product{}
	}
	model.SortProducts(products, order)
	return printJSON(a.out, products)
}

func cmdCategories(ctx context.Context, a *app, args []string) error {
	fs := newFlags("categories", a.errOut)
	slug := fs.String("shop", "", "shop slug (default: active shop)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	shop, err := a.openShop(ctx, *slug)
	if err != nil {
		return err
	}
	cats, err := a.api.Categories(ctx, shop.Slug)
	if err != nil {
		return err
	}
	return printJSON(a.out, cats)
}

// cmdStoreConfig creates the vendor's store or updates it in place. The
// slug is fixed once the store exists.
func cmdStoreConfig(ctx context.Context, a *app, args []string) error {
	fs := newFlags("store-config", a.errOut)
	name := fs.String("name", "", "display name")
	slug := fs.String("slug", "", "URL name (default: derived from -name)")
	desc := fs.String("desc", "", "description")
	var shipping decimalFlag
	fs.Var(&shipping, "shipping", "shipping cost")
	logo := fs.String("logo", "", "logo image file")
	var banners stringsFlag
	fs.Var(&banners, "banner", "banner image file (repeatable)")
	dropBanners := fs.Bool("drop-banners", false, "remove the current banners")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := a.buyer(ctx)
	if err != nil {
		return err
	}
	existing := st.VendorStore

	var s model.Store
	if existing != nil {
		s = *existing
		s.Vendor = nil
		if *slug != "" && *slug != existing.Slug {
			return fmt.Errorf("store %q: the URL name cannot be changed", existing.Slug)
		}
		if *dropBanners {
			s.Banners = nil
		}
	} else {
		if st.IsVendor() {
			return errors.New("vendor store not resolved yet, try again")
		}
		s.Slug = *slug
		if s.Slug == "" {
			s.Slug = validate.Slugify(*name)
		}
		s.VendorDNI = st.DNI()
	}
	if *name != "" {
		s.DisplayName = *name
	}
	if *desc != "" {
		s.Description = *desc
	}
	if shipping.set {
		s.ShippingCost = shipping.v
	}
	if s.Banners == nil {
		s.Banners = []string{}
	}
	if err := validate.Store(s); err != nil {
		return err
	}

	form := api.StoreForm{Store: s}
	if *logo != "" {
		f, err := loadImage(*logo)
		if err != nil {
			return err
		}
		form.Logo = &f
	}
	if form.Banners, err = loadImages(banners); err != nil {
		return err
	}

	var saved *model.Store
	if existing == nil {
		a.at("/crear-tienda")
		saved, err = a.api.CreateStore(ctx, form)
	} else {
		a.at(route.Admin(existing.Slug, "configuracion"))
		saved, err = a.api.UpdateStore(ctx, existing.Slug, form)
	}
	a.reportRedirect()
	if err != nil {
		return err
	}
	if _, err := a.session.SetVendorStore(ctx, saved); err != nil {
		return err
	}
	a.notes.Success("Store saved", saved.DisplayName)
	return printJSON(a.out, saved)
}

func cmdCategoryAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("category-add", a.errOut)
	name := fs.String("name", "", "category name")
	desc := fs.String("desc", "", "description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validate.CategoryName(*name); err != nil {
		return err
	}
	_, shop, err := a.vendorStore(ctx)
	if err != nil {
		return err
	}
	a.at(route.Admin(shop.Slug, "categorias"))
	cats, err := a.api.Categories(ctx, shop.Slug)
	if err != nil {
		return err
	}
	if err := validate.CanAddCategory(cats); err != nil {
		return err
	}
	cat, err := a.api.CreateCategory(ctx, shop.Slug, api.CategoryInput{Name: *name, Description: *desc})
	a.reportRedirect()
	if err != nil {
		return err
	}
	return printJSON(a.out, cat)
}

func cmdCategoryRename(ctx context.Context, a *app, args []string) error {
	fs := newFlags("category-rename", a.errOut)
	id := fs.Int64("id", 0, "category id")
	name := fs.String("name", "", "new name")
	desc := fs.String("desc", "", "new description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("need -id")
	}
	if err := validate.CategoryName(*name); err != nil {
		return err
	}
	_, shop, err := a.vendorStore(ctx)
	if err != nil {
		return err
	}
	a.at(route.Admin(shop.Slug, "categorias"))
	existing, err := a.api.Category(ctx, shop.Slug, *id)
	if err != nil {
		return err
	}
	in := api.CategoryInput{Name: *name, Description: existing.Description}
	if *desc != "" {
		in.Description = *desc
	}
	cat, err := a.api.UpdateCategory(ctx, shop.Slug, *existing, in)
	a.reportRedirect()
	if err != nil {
		return err
	}
	return printJSON(a.out, cat)
}

func cmdCategoryRm(ctx context.Context, a *app, args []string) error {
	fs := newFlags("category-rm", a.errOut)
	id := fs.Int64("id", 0, "category id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("need -id")
	}
	_, shop, err := a.vendorStore(ctx)
	if err != nil {
		return err
	}
	a.at(route.Admin(shop.Slug, "categorias"))
	existing, err := a.api.Category(ctx, shop.Slug, *id)
	if err != nil {
		return err
	}
	err = a.api.DeleteCategory(ctx, shop.Slug, *existing)
	a.reportRedirect()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

// reservedCategoryID is where products without a category go.
func reservedCategoryID(ctx context.Context, a *app, slug string) (int64, error) {
	cats, err := a.api.Categories(ctx, slug)
	if err != nil {
		return 0, err
	}
	c, ok := model.ReservedIn(cats)
	if !ok {
		return 0, fmt.Errorf("shop %q has no %q category, create categories first", slug, model.ReservedCategory)
	}
	return c.ID, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func cmdProductAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("product-add", a.errOut)
	name := fs.String("name", "", "product name")
	desc := fs.String("desc", "", "description")
	var price decimalFlag
	fs.Var(&price, "price", "price")
	stock := fs.Int("stock", 0, "units in stock")
	category := fs.Int64("category", 0, "category id (default: the reserved category)")
	var images stringsFlag
	fs.Var(&images, "image", "image file (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	form := validate.Product{Name: *name, Description: *desc, Price: price.v, Stock: *stock, Images: len(images)}
	if err := form.Validate(); err != nil {
		return err
	}
	files, err := loadImages(images)
	if err != nil {
		return err
	}
	_, shop, err := a.vendorStore(ctx)
	if err != nil {
		return err
	}
	a.at(route.Admin(shop.Slug, "productos", "crear"))

	catID := *category
	if catID == 0 {
		if catID, err = reservedCategoryID(ctx, a, shop.Slug); err != nil {
			return err
		}
	}
	in := api.ProductInput{CategoryID: catID, Name: *name, Description: optional(*desc), Price: price.v, Stock: *stock}
	p, err := a.api.CreateProduct(ctx, shop.Slug, in, files)
	a.reportRedirect()
	if err != nil {
		return err
	}
	a.notes.Success("Product created", p.Name)
	return printJSON(a.out, p)
}

func cmdProductEdit(ctx context.Context, a *app, args []string) error {
	fs := newFlags("product-edit", a.errOut)
	id := fs.Int64("id", 0, "product id")
	name := fs.String("name", "", "product name")
	desc := fs.String("desc", "", "description")
	var price decimalFlag
	fs.Var(&price, "price", "price")
	stock := fs.Int("stock", -1, "units in stock")
	category := fs.Int64("category", 0, "category id")
	var images stringsFlag
	fs.Var(&images, "image", "new image file (repeatable)")
	dropImages := fs.Bool("drop-images", false, "remove the current images")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("need -id")
	}
	_, shop, err := a.vendorStore(ctx)
	if err != nil {
		return err
	}
	a.at(route.Admin(shop.Slug, "productos", "editar"))

	cur, err := a.api.Product(ctx, shop.Slug, *id)
	if err != nil {
		return err
	}
	in := api.ProductInput{
		CategoryID:  cur.CategoryID,
		Name:        cur.Name,
		Description: optional(cur.Description),
		Price:       cur.Price,
		Stock:       cur.Stock,
		Images:      cur.Images,
	}
	if *name != "" {
		in.Name = *name
	}
	if *desc != "" {
		in.Description = optional(*desc)
	}
	if price.set {
		in.Price = price.v
	}
	if *stock >= 0 {
		in.Stock = *stock
	}
	if *category > 0 {
		in.CategoryID = *category
	}
	if *dropImages {
		in.Images = []string{}
	}

	d := ""
	if in.Description != nil {
		d = *in.Description
	}
	form := validate.Product{Name: in.Name, Description: d, Price: in.Price, Stock: in.Stock, Images: len(in.Images) + len(images)}
	if err := form.Validate(); err != nil {
		return err
	}
	files, err := loadImages(images)
	if err != nil {
		return err
	}
	p, err := a.api.UpdateProduct(ctx, shop.Slug, *id, in, files)
	a.reportRedirect()
	if err != nil {
		return err
	}
	return printJSON(a.out, p)
}

func cmdProductRm(ctx context.Context, a *app, args []string) error {
	fs := newFlags("product-rm", a.errOut)
	id := fs.Int64("id", 0, "product id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("need -id")
	}
	_, shop, err := a.vendorStore(ctx)
	if err != nil {
		return err
	}
	err = a.api.DeleteProduct(ctx, shop.Slug, *id)
	a.reportRedirect()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}
