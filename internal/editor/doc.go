// Package editor implements the raster transform pipeline behind the media
// dashboard's image editor.
//
// A Session owns one decoded source image and the TransformState the user
// builds up on top of it: a rotation, six composited colour filters, an
// optional crop rectangle and the target output dimensions. Rendering and
// export are pure functions of (source, state), so the preview a host shows
// and the blob it eventually saves always come from the same code path.
//
// # Coordinate System
//
// Crop rectangles are expressed in the coordinate space of the rotated
// canvas, whose size is the axis-aligned bounding box of the rotated source:
//
//	newW = w·|cos θ| + h·|sin θ|
//	newH = w·|sin θ| + h·|cos θ|
//
// Rotations are clockwise, matching a y-down canvas.
//
// # Session Lifecycle
//
//	Empty → Loading → Ready ⟲ (SetRotation, SetFilter, SetCropArea, ...)
//	Loading → Empty on LoadError
//	Ready → Export → Ready
//
// Starting a new Load cancels the previous one; a superseded load never
// overwrites the newer source, and an export whose source was replaced
// while it was encoding is discarded with an ExportError.
//
// # Invalid Input
//
// Session mutations clamp out-of-range values instead of rejecting them and
// return the value that was actually stored. Callers that prefer strict
// validation can use Filters.Validate before applying values.
package editor
