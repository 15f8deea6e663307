package service

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"

	"github.com/unkn0wn-root/qrcache/raster"
	"github.com/unkn0wn-root/qrcache/store"
)

const (
	DefaultSize       = 350
	DefaultForeground = "#000000"
	DefaultBackground = "#FFFFFF"
	// MaxTextLength counts runes.
	MaxTextLength = 1000
	// MaxSize caps either dimension; a larger grid is rejected as invalid.
	MaxSize = 4096
)

// Request describes one symbol. Zero Width/Height and empty colors take the
// defaults.
type Request struct {
	Text            string `json:"text" yaml:"text"`
	Width           int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height          int    `json:"height,omitempty" yaml:"height,omitempty"`
	Color           string `json:"color,omitempty" yaml:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
}

// params is a validated Request with defaults applied.
type params struct {
	text          string
	width, height int
	fg, bg        raster.HexColor
}

func (r *Request) params() (params, error) {
	if r == nil {
		return params{}, goerr.Wrap(ErrValidation, "request is required")
	}
	if strings.TrimSpace(r.Text) == "" {
		return params{}, goerr.Wrap(ErrValidation, "text cannot be blank")
	}
	if n := utf8.RuneCountInString(r.Text); n > MaxTextLength {
		return params{}, goerr.Wrap(ErrValidation, "text is too long",
			goerr.V("length", n), goerr.V("max", MaxTextLength))
	}
	if r.Width > MaxSize || r.Height > MaxSize {
		return params{}, goerr.Wrap(ErrValidation, "size is too large",
			goerr.V("width", r.Width), goerr.V("height", r.Height), goerr.V("max", MaxSize))
	}

	p := params{
		text:   r.Text,
		width:  positiveOr(r.Width, DefaultSize),
		height: positiveOr(r.Height, DefaultSize),
	}
	var err error
	if p.fg, err = parseColor(r.Color, DefaultForeground); err != nil {
		return params{}, err
	}
	if p.bg, err = parseColor(r.BackgroundColor, DefaultBackground); err != nil {
		return params{}, err
	}
	return p, nil
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func parseColor(s, def string) (raster.HexColor, error) {
	if strings.TrimSpace(s) == "" {
		s = def
	}
	c, err := raster.ParseHexColor(s)
	if err != nil {
		return 0, generationError(err, "failed to parse color", goerr.V("color", s))
	}
	return c, nil
}

// paramsOf rebuilds render parameters from a stored code.
func paramsOf(c *store.Code) (params, error) {
	return (&Request{
		Text:            c.Content,
		Width:           c.Width,
		Height:          c.Height,
		Color:           c.Foreground,
		BackgroundColor: c.Background,
	}).params()
}

// Result is a generated (and, unless from GenerateSimple, persisted) code.
type Result struct {
	ID         store.ID
	Text       string
	Image      []byte
	Width      int
	Height     int
	Foreground raster.HexColor
	Background raster.HexColor
	CreatedAt  time.Time
	OwnerID    store.ID
}

// Size renders "WIDTHxHEIGHT".
func (r *Result) Size() string { return fmt.Sprintf("%dx%d", r.Width, r.Height) }

// Colors renders "#FOREGROUND/#BACKGROUND".
func (r *Result) Colors() string { return r.Foreground.String() + "/" + r.Background.String() }

func (r *Result) MimeType() string { return raster.MimeType }

// ImageURL inlines the PNG as a data URI.
func (r *Result) ImageURL() string {
	return "data:" + raster.MimeType + ";base64," + base64.StdEncoding.EncodeToString(r.Image)
}
