// Package color derives representative colors from regions of a frame.
//
// Extraction functions take a frame and a rectangle in the frame's pixel
// space and return one RGB value:
//
//   - Average: per-channel arithmetic mean
//   - AverageQuadratic: per-channel root mean square
//   - AverageGained: Average with saturation and value boosted, except for
//     near-gray input where boosting would only amplify noise
//   - Dominant: the most populous vibrant (or light muted) palette swatch,
//     falling back to Average when the region has none
//
// DominantVariants returns the light vibrant, vibrant and dark vibrant
// swatches without choosing. QuantizedDominant bins arbitrary colors onto
// an evenly spaced hue wheel and returns the busiest bin.
//
// Rectangles are assumed non-empty. Zone configuration rejects zero-area
// rectangles before any frame is processed.
//
// HSV and HSL math is delegated to go-colorful.
package color
