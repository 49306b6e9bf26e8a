package main

import (
	"context"
	"fmt"

	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/route"
	"github.com/and161185/storefront/internal/session"
	"github.com/and161185/storefront/internal/validate"
)

// sessionView is the printable form of a session.
type sessionView struct {
	Phase      string       `json:"phase"`
	Role       string       `json:"role,omitempty"`
	User       *model.User  `json:"user,omitempty"`
	Store      *model.Store `json:"store,omitempty"`
	ActiveShop string       `json:"activeShop,omitempty"`
	Degraded   bool         `json:"degraded,omitempty"`
	Home       string       `json:"home"`
}

func viewOf(st session.State) sessionView {
	return sessionView{
		Phase:      st.Phase.String(),
		Role:       string(st.Role),
		User:       st.User,
		Store:      st.VendorStore,
		ActiveShop: st.ActiveShop,
		Degraded:   st.Degraded,
		Home:       homeOf(st),
	}
}

// homeOf is where a user lands after login: the seller panel for a
// vendor, the active shop catalog for a buyer.
func homeOf(st session.State) string {
	switch {
	case st.VendorStore != nil:
		return route.Admin(st.VendorStore.Slug)
	case st.ActiveShop != "":
		return route.Shop(st.ActiveShop, "catalogo")
	}
	return route.Landing
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlags("register", a.errOut)
	dni := fs.String("dni", "", "DNI")
	name := fs.String("name", "", "first name")
	surname := fs.String("surname", "", "last name")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password again")
	shop := fs.String("shop", "", "shop to register from")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := validate.ParseDNI(*dni)
	if err != nil {
		return err
	}
	reg := model.Registration{DNI: id, Name: *name, Surname: *surname, Email: *email, Password: *password, ConfirmPassword: *confirm}
	if err := validate.Registration(reg); err != nil {
		return err
	}
	a.at(loginPath(*shop))

	st, err := a.session.Register(ctx, reg)
	if err != nil {
		return err
	}
	if *shop != "" {
		if err := a.session.SetActiveShop(ctx, *shop); err != nil {
			return err
		}
		st = a.session.State()
	}
	a.notes.Success("Account created", "check your email to verify the account")
	return printJSON(a.out, viewOf(st))
}

func loginPath(shop string) string {
	if shop == "" {
		return route.Login
	}
	return route.ShopLogin(shop, "")
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login", a.errOut)
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	dni := fs.String("dni", "", "DNI to cross-check against the email")
	shop := fs.String("shop", "", "shop to log in to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	creds := model.Credentials{Email: *email, Password: *password}
	if err := validate.Login(creds); err != nil {
		return err
	}
	var check model.DNI
	if *dni != "" {
		id, err := validate.ParseDNI(*dni)
		if err != nil {
			return err
		}
		check = id
	}
	a.at(loginPath(*shop))

	st, err := a.session.Login(ctx, creds, check)
	if err != nil {
		return err
	}
	if *shop != "" {
		if err := a.session.SetActiveShop(ctx, *shop); err != nil {
			return err
		}
		st = a.session.State()
	}
	return printJSON(a.out, viewOf(st))
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, _ []string) error {
	st, err := a.session.Resolve(ctx)
	if err != nil {
		return err
	}
	return printJSON(a.out, viewOf(st))
}

func cmdVerify(ctx context.Context, a *app, args []string) error {
	fs := newFlags("verify", a.errOut)
	code := fs.String("code", "", "verification code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := need("code", *code); err != nil {
		return err
	}
	a.at(route.Landing)
	msg, err := a.api.VerifyAccount(ctx, *code)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func cmdForgotPassword(ctx context.Context, a *app, args []string) error {
	fs := newFlags("forgot-password", a.errOut)
	dni := fs.String("dni", "", "DNI")
	email := fs.String("email", "", "email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := validate.ParseDNI(*dni)
	if err != nil {
		return err
	}
	if err := validate.Email(*email); err != nil {
		return err
	}
	a.at(route.Login)
	msg, err := a.api.ForgotPassword(ctx, id, *email)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func cmdResetPassword(ctx context.Context, a *app, args []string) error {
	fs := newFlags("reset-password", a.errOut)
	token := fs.String("token", "", "reset token from the email")
	password := fs.String("password", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := need("token", *token); err != nil {
		return err
	}
	if err := validate.Password(*password); err != nil {
		return err
	}
	a.at(route.Login)
	msg, err := a.api.ResetPassword(ctx, *token, *password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func cmdPasswd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("passwd", a.errOut)
	current := fs.String("current", "", "current password")
	next := fs.String("new", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := need("current", *current); err != nil {
		return err
	}
	if err := validate.Password(*next); err != nil {
		return err
	}
	if _, err := a.authenticated(ctx); err != nil {
		return err
	}
	a.at(route.Profile)
	msg, err := a.api.ChangePassword(ctx, *current, *next)
	a.reportRedirect()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}
