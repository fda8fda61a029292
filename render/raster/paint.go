package raster

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/zeptools/certmerge/elements"
)

var (
	white          = color.NRGBA{255, 255, 255, 255}
	black          = color.NRGBA{0, 0, 0, 255}
	transparent    = color.NRGBA{}
	selectionColor = color.NRGBA{0x3b, 0x82, 0xf6, 0xff}
	shadowDefault  = color.NRGBA{0, 0, 0, 128}
)

// painter draws in device pixels. Every logical coordinate goes through px.
type painter struct {
	ctx    context.Context
	dc     *gg.Context
	ratio  float64
	fonts  *Fonts
	images *imageCache
}

func newPainter(ctx context.Context, w, h int, ratio float64, fonts *Fonts, images *imageCache) *painter {
	return &painter{
		ctx:    ctx,
		dc:     gg.NewContext(w, h),
		ratio:  ratio,
		fonts:  fonts,
		images: images,
	}
}

func (p *painter) px(v float64) float64 { return v * p.ratio }

func (p *painter) background(size elements.Size, bg elements.Background) {
	dc := p.dc
	w, h := float64(dc.Width()), float64(dc.Height())
	dc.SetColor(white)
	dc.Clear()

	g := bg.Gradient
	if bg.Type == elements.BackgroundGradient && g != nil && len(g.Colors) > 0 {
		if len(g.Colors) == 1 {
			dc.SetColor(colorOr(g.Colors[0], white))
			dc.DrawRectangle(0, 0, w, h)
			dc.Fill()
			return
		}
		var grad gg.Gradient
		if g.Type == elements.GradientRadial {
			r := math.Hypot(w, h) / 2
			grad = gg.NewRadialGradient(w/2, h/2, 0, w/2, h/2, r)
		} else {
			// end point follows the editor: horizontal at 0deg, otherwise scaled by the box
			x1, y1 := w, 0.0
			if g.Angle != 0 {
				rad := gg.Radians(g.Angle)
				x1, y1 = math.Cos(rad)*w, math.Sin(rad)*h
			}
			grad = gg.NewLinearGradient(0, 0, x1, y1)
		}
		last := float64(len(g.Colors) - 1)
		for i, c := range g.Colors {
			grad.AddColorStop(float64(i)/last, colorOr(c, white))
		}
		dc.SetFillStyle(grad)
		dc.DrawRectangle(0, 0, w, h)
		dc.Fill()
		dc.SetColor(white) // drop the gradient pattern
		return
	}
	dc.SetColor(colorOr(bg.Color, white))
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
}

func (p *painter) element(it item) {
	b := it.el.Common()
	dc := p.dc
	dc.Push()
	defer dc.Pop()

	if b.Rotation != 0 {
		cx, cy := p.pivot(it.el)
		dc.RotateAbout(gg.Radians(b.Rotation), cx, cy)
	}
	if b.Shadow != nil {
		p.shadow(it.el)
	}

	switch e := it.el.(type) {
	case *elements.Text:
		p.text(b, it.text, textStyle{
			family: e.FontFamily,
			style:  e.FontStyle,
			size:   e.FontSize,
			fill:   e.Fill,
			align:  e.Align,
		})
	case *elements.Placeholder:
		p.text(b, it.text, textStyle{
			family:        e.FontFamily,
			style:         e.FontStyle,
			size:          e.FontSize,
			fill:          e.Fill,
			align:         e.Align,
			middle:        true,
			underline:     e.Underlined(),
			letterSpacing: e.LetterSpacing,
		})
	case *elements.Shape:
		p.shape(e)
	case *elements.Image:
		p.image(e)
	}

	if b.Border != nil && b.Border.Width > 0 {
		p.border(b)
	}
	if b.Selected {
		p.selection(b)
	}
}

// pivot - circles are positioned by their centre, everything else by the top-left corner
func (p *painter) pivot(e elements.Element) (float64, float64) {
	b := e.Common()
	if s, ok := e.(*elements.Shape); ok && s.ShapeType == elements.ShapeCircle {
		return p.px(b.X + b.Width/2), p.px(b.Y + b.Height/2)
	}
	return p.px(b.X), p.px(b.Y)
}

func (p *painter) outline(dc *gg.Context, e elements.Element, dx, dy float64) {
	b := e.Common()
	x, y := p.px(b.X+dx), p.px(b.Y+dy)
	w, h := p.px(b.Width), p.px(b.Height)
	if s, ok := e.(*elements.Shape); ok {
		switch s.ShapeType {
		case elements.ShapeCircle:
			dc.DrawCircle(x+w/2, y+h/2, math.Min(w, h)/2)
			return
		case elements.ShapeLine:
			dc.DrawLine(x, y, x+w, y+h)
			return
		}
	}
	if b.Border != nil && b.Border.Radius > 0 {
		dc.DrawRoundedRectangle(x, y, w, h, p.px(b.Border.Radius))
		return
	}
	dc.DrawRectangle(x, y, w, h)
}

// shadow paints the element silhouette on its own layer, blurs it and composites it underneath.
func (p *painter) shadow(e elements.Element) {
	b := e.Common()
	sh := b.Shadow
	c := withOpacity(colorOr(sh.Color, shadowDefault), b.Opacity)
	if c.A == 0 {
		return
	}
	layer := gg.NewContext(p.dc.Width(), p.dc.Height())
	if b.Rotation != 0 {
		cx, cy := p.pivot(e)
		layer.RotateAbout(gg.Radians(b.Rotation), cx, cy)
	}
	p.outline(layer, e, sh.OffsetX, sh.OffsetY)
	layer.SetColor(c)
	if s, ok := e.(*elements.Shape); ok && s.ShapeType == elements.ShapeLine {
		layer.SetLineWidth(p.px(math.Max(s.StrokeWidth, 1)))
		layer.Stroke()
	} else {
		layer.Fill()
	}
	var img image.Image = layer.Image()
	if sh.Blur > 0 {
		img = imaging.Blur(img, p.px(sh.Blur)/2)
	}
	p.dc.Push()
	p.dc.Identity()
	p.dc.DrawImage(img, 0, 0)
	p.dc.Pop()
}

func (p *painter) shape(s *elements.Shape) {
	dc := p.dc
	fill := withOpacity(colorOr(s.Fill, transparent), s.Opacity)
	stroke := withOpacity(colorOr(s.Stroke, black), s.Opacity)

	p.outline(dc, s, 0, 0)
	if s.ShapeType != elements.ShapeLine && fill.A > 0 {
		dc.SetColor(fill)
		dc.FillPreserve()
	}
	if s.StrokeWidth > 0 && stroke.A > 0 {
		dc.SetColor(stroke)
		dc.SetLineWidth(p.px(s.StrokeWidth))
		dc.Stroke()
		return
	}
	dc.ClearPath()
}

func (p *painter) image(e *elements.Image) {
	src, err := p.images.get(p.ctx, e.Src)
	if err != nil || src == nil {
		return
	}
	w := int(math.Round(p.px(e.Width)))
	h := int(math.Round(p.px(e.Height)))
	fitted := fitImage(src, w, h, e.Opacity)
	if fitted == nil {
		return
	}
	p.dc.DrawImage(fitted, int(math.Round(p.px(e.X))), int(math.Round(p.px(e.Y))))
}

type textStyle struct {
	family        string
	style         string
	size          float64
	fill          string
	align         elements.Align
	middle        bool // vertically centred in the box
	underline     bool
	letterSpacing float64
}

func (p *painter) text(b *elements.Base, s string, st textStyle) {
	if s == "" {
		return
	}
	dc := p.dc
	bold, italic := elements.FontFlags(st.style)
	size := st.size
	if size <= 0 {
		size = elements.DefaultFontSize
	}
	face := p.fonts.Face(st.family, bold, italic, p.px(size))
	dc.SetFontFace(face)
	dc.SetColor(withOpacity(colorOr(st.fill, black), b.Opacity))

	boxX, boxW := p.px(b.X), p.px(b.Width)
	lines := dc.WordWrap(s, boxW)
	lineH := dc.FontHeight()
	ascent := float64(face.Metrics().Ascent) / 64

	top := p.px(b.Y)
	if st.middle {
		top += (p.px(b.Height) - lineH*float64(len(lines))) / 2
	}
	spacing := p.px(st.letterSpacing)
	for i, line := range lines {
		baseline := top + float64(i)*lineH + ascent
		w := p.measure(line, spacing)
		x := boxX
		switch st.align {
		case elements.AlignCenter:
			x += (boxW - w) / 2
		case elements.AlignRight:
			x += boxW - w
		}
		if spacing != 0 {
			p.drawSpaced(line, x, baseline, spacing)
		} else {
			dc.DrawString(line, x, baseline)
		}
		if st.underline {
			thick := math.Max(p.ratio, p.px(size)/15)
			y := baseline + thick*2
			dc.SetLineWidth(thick)
			dc.DrawLine(x, y, x+w, y)
			dc.Stroke()
		}
	}
}

func (p *painter) measure(line string, spacing float64) float64 {
	if spacing == 0 {
		w, _ := p.dc.MeasureString(line)
		return w
	}
	var w float64
	n := 0
	for _, r := range line {
		rw, _ := p.dc.MeasureString(string(r))
		w += rw
		n++
	}
	if n > 1 {
		w += spacing * float64(n-1)
	}
	return w
}

func (p *painter) drawSpaced(line string, x, baseline, spacing float64) {
	for _, r := range line {
		g := string(r)
		p.dc.DrawString(g, x, baseline)
		rw, _ := p.dc.MeasureString(g)
		x += rw + spacing
	}
}

func (p *painter) border(b *elements.Base) {
	dc := p.dc
	bd := b.Border
	w := p.px(bd.Width)
	switch bd.Style {
	case elements.BorderDashed:
		dc.SetDash(w*4, w*2)
	case elements.BorderDotted:
		dc.SetDash(w, w)
	}
	x, y, bw, bh := p.px(b.X), p.px(b.Y), p.px(b.Width), p.px(b.Height)
	if bd.Radius > 0 {
		dc.DrawRoundedRectangle(x, y, bw, bh, p.px(bd.Radius))
	} else {
		dc.DrawRectangle(x, y, bw, bh)
	}
	dc.SetColor(withOpacity(colorOr(bd.Color, black), b.Opacity))
	dc.SetLineWidth(w)
	dc.Stroke()
	dc.SetDash()
}

func (p *painter) selection(b *elements.Base) {
	dc := p.dc
	dash := 5 * p.ratio
	dc.SetDash(dash, dash)
	dc.SetColor(selectionColor)
	dc.SetLineWidth(p.ratio)
	dc.DrawRectangle(p.px(b.X), p.px(b.Y), p.px(b.Width), p.px(b.Height))
	dc.Stroke()
	dc.SetDash()
}
