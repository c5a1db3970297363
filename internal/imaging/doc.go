// Package imaging provides the raster primitives the editor is built on.
//
// It loads source images from http(s) URLs, file:// URLs and local paths,
// crops and resamples canvases, encodes exports as JPEG, WebP or PNG, samples
// colors and renders display-sized previews with a crop overlay. All
// operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive (top-left) and Max is exclusive (bottom-right)
//
// # Thread Safety
//
// ImageCache and Loader are safe for concurrent use. Loaded sources are never
// modified, so a cached Source can be shared between editor sessions. The
// remaining functions are stateless and return new images rather than
// mutating their inputs.
//
// # Color Representation
//
// Sampled colors are returned in several forms:
//   - Hex: 6-character format "#RRGGBB" (alpha excluded)
//   - RGB/RGBA: 8-bit components (0-255)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
//
// # Performance Considerations
//
// Decoded sources are held fully in memory. Long-running processes should
// Evict() sources no session references any more.
package imaging
