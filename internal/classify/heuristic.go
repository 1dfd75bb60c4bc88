package classify

import (
	"context"
	"image"
	"math"

	"github.com/nfnt/resize"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/imageprep"
)

// Signals are coarse pixel statistics of an image, all in 0..1 except Aspect.
type Signals struct {
	Aspect      float64 // width / height of the original frame
	Brightness  float64
	Saturation  float64
	EdgeDensity float64
}

// HeuristicAnalyzer guesses a category from basic visual signals.
// It is deliberately conservative and answers unknown whenever the signals are ambiguous.
type HeuristicAnalyzer struct{}

func (HeuristicAnalyzer) Analyze(_ context.Context, img []byte) (Analysis, error) {
	decoded, err := imageprep.Decode(img)
	if err != nil {
		return Analysis{}, err
	}
	return Guess(Measure(decoded)), nil
}

// Measure samples img on a small grid and computes its Signals.
func Measure(img image.Image) Signals {
	b := img.Bounds()
	s := Signals{}
	if b.Dy() > 0 {
		s.Aspect = float64(b.Dx()) / float64(b.Dy())
	}
	small := resize.Resize(64, 64, img, resize.Bilinear)
	sb := small.Bounds()

	lum := make([][]float64, sb.Dy())
	var sumL, sumS float64
	for y := 0; y < sb.Dy(); y++ {
		lum[y] = make([]float64, sb.Dx())
		for x := 0; x < sb.Dx(); x++ {
			r, g, bl, _ := small.At(sb.Min.X+x, sb.Min.Y+y).RGBA()
			rf, gf, bf := float64(r)/0xffff, float64(g)/0xffff, float64(bl)/0xffff
			l := 0.299*rf + 0.587*gf + 0.114*bf
			lum[y][x] = l
			sumL += l
			mx := math.Max(rf, math.Max(gf, bf))
			mn := math.Min(rf, math.Min(gf, bf))
			if mx > 0 {
				sumS += (mx - mn) / mx
			}
		}
	}
	n := float64(sb.Dx() * sb.Dy())
	if n == 0 {
		return s
	}
	s.Brightness = sumL / n
	s.Saturation = sumS / n

	var edges, pairs float64
	for y := 0; y < len(lum); y++ {
		for x := 0; x < len(lum[y]); x++ {
			if x+1 < len(lum[y]) {
				pairs++
				if math.Abs(lum[y][x]-lum[y][x+1]) > 0.12 {
					edges++
				}
			}
			if y+1 < len(lum) {
				pairs++
				if math.Abs(lum[y][x]-lum[y+1][x]) > 0.12 {
					edges++
				}
			}
		}
	}
	if pairs > 0 {
		s.EdgeDensity = edges / pairs
	}
	return s
}

// Guess maps signals to a category.
func Guess(s Signals) Analysis {
	switch {
	case s.Brightness < 0.12 && s.Saturation < 0.08:
		return Analysis{Category: constants.CategoryUnknown}
	case cardShaped(s.Aspect) && s.EdgeDensity > 0.18 && s.Saturation < 0.35:
		return Analysis{Category: constants.CategoryDocument, Confidence: 0.6}
	case s.Brightness < 0.3:
		return Analysis{Category: constants.CategoryVehicleInterior, Confidence: 0.4}
	case s.Aspect > 1.2 && s.EdgeDensity > 0.05:
		return Analysis{Category: constants.CategoryVehicleExterior, Confidence: 0.4}
	}
	return Analysis{Category: constants.CategoryUnknown, Confidence: 0.2}
}

// cardShaped matches ID-1 cards (85.6 x 54 mm) in either orientation.
func cardShaped(aspect float64) bool {
	if aspect > 0 && aspect < 1 {
		aspect = 1 / aspect
	}
	return aspect >= 1.4 && aspect <= 1.8
}
