package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/and161185/storefront/internal/api"
	"github.com/and161185/storefront/internal/validate"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

// loadImage reads an image upload and checks its size and type.
func loadImage(path string) (api.File, error) {
	b, err := readAll(path)
	if err != nil {
		return api.File{}, err
	}
	name := filepath.Base(path)
	ct, err := validate.Image(name, b)
	if err != nil {
		return api.File{}, err
	}
	return api.File{Name: name, ContentType: ct, Content: bytes.NewReader(b)}, nil
}

func loadImages(paths []string) ([]api.File, error) {
	out := make([]api.File, 0, len(paths))
	for _, p := range paths {
		f, err := loadImage(p)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// newFlags builds a subcommand flag set that reports errors instead of exiting.
func newFlags(name string, errOut io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	return fs
}

// need reports the first empty required flag.
func need(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("need -%s", pairs[i])
		}
	}
	return nil
}

// stringsFlag collects a repeatable string flag.
type stringsFlag []string

func (s *stringsFlag) String() string { return strings.Join(*s, ",") }

func (s *stringsFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// intsFlag collects a repeatable integer flag.
type intsFlag []int

func (s *intsFlag) String() string {
	parts := make([]string, len(*s))
	for i, v := range *s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (s *intsFlag) Set(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*s = append(*s, n)
	return nil
}

// decimalFlag is a money flag that remembers whether it was set.
type decimalFlag struct {
	v   decimal.Decimal
	set bool
}

func (d *decimalFlag) String() string {
	if !d.set {
		return ""
	}
	return d.v.String()
}

func (d *decimalFlag) Set(s string) error {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	d.v, d.set = v, true
	return nil
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
