package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/and161185/storefront/internal/model"
)

var errNoToken = errors.New("auth response carries no token")

// Register creates an account and returns the issued token.
func (c *Client) Register(ctx context.Context, reg model.Registration) (string, error) {
	var out model.AuthToken
	if err := c.do(ctx, http.MethodPost, "auth/register", reg, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errNoToken
	}
	return out.Token, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (string, error) {
	var out model.AuthToken
	if err := c.do(ctx, http.MethodPost, "auth/login", creds, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errNoToken
	}
	return out.Token, nil
}

// VerifyAccount confirms an email verification code.
func (c *Client) VerifyAccount(ctx context.Context, code string) (string, error) {
	var raw []byte
	path := "auth/verify?" + url.Values{"code": {code}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return "", err
	}
	return ackMessage(raw), nil
}

// ForgotPassword asks for a reset mail for the account matching dni and email.
func (c *Client) ForgotPassword(ctx context.Context, dni model.DNI, email string) (string, error) {
	body := struct {
		DNI   model.DNI `json:"dni"`
		Email string    `json:"email"`
	}{dni, email}
	var raw []byte
	if err := c.do(ctx, http.MethodPost, "auth/forgot-password", body, &raw); err != nil {
		return "", err
	}
	return ackMessage(raw), nil
}

// ResetPassword sets a new password using a mailed reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	body := struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}{token, newPassword}
	var raw []byte
	if err := c.do(ctx, http.MethodPost, "auth/reset-password", body, &raw); err != nil {
		return "", err
	}
	return ackMessage(raw), nil
}

// ChangePassword changes the password of the authenticated user.
func (c *Client) ChangePassword(ctx context.Context, current, newPassword string) (string, error) {
	body := struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}{current, newPassword}
	var raw []byte
	if err := c.do(ctx, http.MethodPost, "auth/change-password", body, &raw); err != nil {
		return "", err
	}
	return ackMessage(raw), nil
}
