// internal/workflow/design.go
//
// Pipeline step 2: design update.
//
// Pure persistence: caller-supplied colors, fonts, and the edited page
// tree overwrite the corresponding fields.  No upstream call.  Colors are
// re-validated server-side even though the client validates too; an
// invalid hex value must never reach the colors column.

package workflow

import (
	"context"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/sitewright/sitewright/internal/metrics"
	"github.com/sitewright/sitewright/internal/site"
)

// hex6 is stricter than validator's built-in hexcolor: exactly six digits,
// leading “#”, no shorthand.
var hex6 = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var designValidator = newDesignValidator()

func newDesignValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hex6", func(fl validator.FieldLevel) bool {
		return hex6.MatchString(fl.Field().String())
	})
	return v
}

// DesignInput is the caller-editable design surface.
type DesignInput struct {
	SiteID string `json:"site_id" validate:"required"`

	Colors struct {
		Primary    string `json:"primary"    validate:"required,hex6"`
		Secondary  string `json:"secondary"  validate:"required,hex6"`
		Background string `json:"background" validate:"required,hex6"`
	} `json:"colors"`

	Fonts struct {
		Heading string `json:"heading" validate:"required,max=80"`
		Body    string `json:"body"    validate:"required,max=80"`
	} `json:"fonts"`

	PagesMeta site.PagesMeta `json:"pages_meta" validate:"required,min=1"`
}

// DesignResult echoes the persisted design back to the caller.  Record
// itself carries only db tags, so it never crosses the wire directly.
type DesignResult struct {
	SiteID    string         `json:"site_id"`
	Colors    site.Colors    `json:"colors"`
	Fonts     site.Fonts     `json:"fonts"`
	PagesMeta site.PagesMeta `json:"pages_meta"`
}

// UpdateDesign validates and persists input.  Returns the stored design.
func (e *Engine) UpdateDesign(ctx context.Context, input DesignInput) (*DesignResult, error) {
	if err := designValidator.Struct(input); err != nil {
		return nil, &ValidationError{Field: "design", Reason: err.Error()}
	}

	rec, err := e.store.ByID(ctx, input.SiteID)
	if err != nil {
		return nil, err
	}

	colors := site.Colors{
		Primary:    input.Colors.Primary,
		Secondary:  input.Colors.Secondary,
		Background: input.Colors.Background,
	}
	fonts := site.Fonts{Heading: input.Fonts.Heading, Body: input.Fonts.Body}

	if err := e.store.UpdateDesign(ctx, rec.ID, input.PagesMeta, colors, fonts); err != nil {
		return nil, e.stepFailed(ctx, rec.ID, "design", err)
	}

	metrics.PipelineStepsTotal.WithLabelValues("design", "ok").Inc()
	e.store.Append(ctx, rec.ID, "design.updated", map[string]any{
		"pages": len(input.PagesMeta),
	})

	return &DesignResult{
		SiteID:    rec.ID,
		Colors:    colors,
		Fonts:     fonts,
		PagesMeta: input.PagesMeta,
	}, nil
}
