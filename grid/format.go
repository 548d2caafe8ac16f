package grid

// Align is horizontal cell alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// VerticalAlign is vertical cell alignment.
type VerticalAlign string

const (
	VAlignTop    VerticalAlign = "top"
	VAlignMiddle VerticalAlign = "middle"
	VAlignBottom VerticalAlign = "bottom"
)

// Wrap controls text overflow behavior.
type Wrap string

const (
	WrapOverflow Wrap = "overflow"
	WrapWrap     Wrap = "wrap"
	WrapClip     Wrap = "clip"
)

// NumericFormatKind selects how numbers render.
type NumericFormatKind string

const (
	NumericPlain      NumericFormatKind = "number"
	NumericCurrency   NumericFormatKind = "currency"
	NumericPercentage NumericFormatKind = "percentage"
	NumericExponent   NumericFormatKind = "exponential"
)

// Format is a patch of cell formatting. Nil fields mean "unchanged"
// when applied and "unset" when stored, which makes the same struct
// serve as both the stored format and the update.
type Format struct {
	Align           *Align             `json:"align,omitempty"`
	VerticalAlign   *VerticalAlign     `json:"vertical_align,omitempty"`
	Wrap            *Wrap              `json:"wrap,omitempty"`
	NumericFormat   *NumericFormatKind `json:"numeric_format,omitempty"`
	NumericDecimals *int16             `json:"numeric_decimals,omitempty"`
	NumericCommas   *bool              `json:"numeric_commas,omitempty"`
	Bold            *bool              `json:"bold,omitempty"`
	Italic          *bool              `json:"italic,omitempty"`
	TextColor       *string            `json:"text_color,omitempty"`
	FillColor       *string            `json:"fill_color,omitempty"`
	DateTime        *string            `json:"date_time,omitempty"` // strftime template
	RenderSize      *RenderSize        `json:"render_size,omitempty"`
}

// RenderSize is the output size of an Html or Image cell.
type RenderSize struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// IsDefault reports whether every field is unset.
func (f *Format) IsDefault() bool {
	return f == nil || *f == Format{}
}

// Clone returns a deep copy.
func (f *Format) Clone() *Format {
	if f == nil {
		return nil
	}
	out := *f
	return &out
}

// Apply overlays the update onto f, returning the previous values of
// the fields it set. Set fields in update replace; untouched fields
// survive. A field that was unset before comes back nil in the
// returned patch, so applying that patch does not clear it again.
func (f *Format) Apply(update *Format) *Format {
	old := &Format{}
	if update == nil {
		return old
	}
	if update.Align != nil {
		old.Align = f.Align
		f.Align = update.Align
	}
	if update.VerticalAlign != nil {
		old.VerticalAlign = f.VerticalAlign
		f.VerticalAlign = update.VerticalAlign
	}
	if update.Wrap != nil {
		old.Wrap = f.Wrap
		f.Wrap = update.Wrap
	}
	if update.NumericFormat != nil {
		old.NumericFormat = f.NumericFormat
		f.NumericFormat = update.NumericFormat
	}
	if update.NumericDecimals != nil {
		old.NumericDecimals = f.NumericDecimals
		f.NumericDecimals = update.NumericDecimals
	}
	if update.NumericCommas != nil {
		old.NumericCommas = f.NumericCommas
		f.NumericCommas = update.NumericCommas
	}
	if update.Bold != nil {
		old.Bold = f.Bold
		f.Bold = update.Bold
	}
	if update.Italic != nil {
		old.Italic = f.Italic
		f.Italic = update.Italic
	}
	if update.TextColor != nil {
		old.TextColor = f.TextColor
		f.TextColor = update.TextColor
	}
	if update.FillColor != nil {
		old.FillColor = f.FillColor
		f.FillColor = update.FillColor
	}
	if update.DateTime != nil {
		old.DateTime = f.DateTime
		f.DateTime = update.DateTime
	}
	if update.RenderSize != nil {
		old.RenderSize = f.RenderSize
		f.RenderSize = update.RenderSize
	}
	return old
}

// Merge layers cell formatting over row, column and sheet defaults.
// Later arguments win; nil entries are skipped.
func MergeFormats(layers ...*Format) Format {
	var out Format
	for _, layer := range layers {
		if layer == nil {
			continue
		}
		if layer.Align != nil {
			out.Align = layer.Align
		}
		if layer.VerticalAlign != nil {
			out.VerticalAlign = layer.VerticalAlign
		}
		if layer.Wrap != nil {
			out.Wrap = layer.Wrap
		}
		if layer.NumericFormat != nil {
			out.NumericFormat = layer.NumericFormat
		}
		if layer.NumericDecimals != nil {
			out.NumericDecimals = layer.NumericDecimals
		}
		if layer.NumericCommas != nil {
			out.NumericCommas = layer.NumericCommas
		}
		if layer.Bold != nil {
			out.Bold = layer.Bold
		}
		if layer.Italic != nil {
			out.Italic = layer.Italic
		}
		if layer.TextColor != nil {
			out.TextColor = layer.TextColor
		}
		if layer.FillColor != nil {
			out.FillColor = layer.FillColor
		}
		if layer.DateTime != nil {
			out.DateTime = layer.DateTime
		}
		if layer.RenderSize != nil {
			out.RenderSize = layer.RenderSize
		}
	}
	return out
}
